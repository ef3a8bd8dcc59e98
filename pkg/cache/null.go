package cache

import (
	"context"
	"time"
)

// NullCache backs "render --no-cache" and "serve --no-cache", and is the
// server's cache until WithCache replaces it. Every render through
// [Rendered] is then a miss and is drawn again.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
