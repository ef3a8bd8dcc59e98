package cache

import (
	"context"
	"time"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/observability"
	"github.com/matzehuels/gridwalk/pkg/render"
)

// Rendered returns g rendered in format f, from c when possible, storing a
// fresh render for ttl. Cache failures fall back to rendering; only render
// errors are returned. The bool reports a cache hit.
func Rendered(ctx context.Context, c Cache, f render.Format, g *grid.Grid, opts render.Options, ttl time.Duration) ([]byte, bool, error) {
	if c == nil {
		c = NewNullCache()
	}
	hooks := observability.Cache()
	key := RenderKey(g, f, opts)

	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, string(f))
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, string(f))

	data, err := render.Render(ctx, f, g, opts)
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, string(f), len(data))
	}
	return data, false, nil
}
