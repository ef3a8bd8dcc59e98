// Package config loads gridwalk settings from a TOML file.
//
// Lookup order: an explicit path (--config), then
// $XDG_CONFIG_HOME/gridwalk/config.toml, then ~/.config/gridwalk/config.toml.
// A missing file is not an error; defaults apply. Values are validated after
// decoding: sizes and delays are clamped, enums must be known.
//
//	[grid]
//	size = 10
//
//	[solve]
//	algorithm = "BFS"
//	delay = "100ms"
//	path_delay = "50ms"
//
//	[server]
//	addr = ":8080"
//	store = "redis"
//
//	[redis]
//	addr = "localhost:6379"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// Store backends for the server.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// StoreKinds lists the accepted [server] store values.
var StoreKinds = []string{StoreMemory, StoreFile, StoreRedis, StoreMongo}

// MaxDelay caps configured step delays.
const MaxDelay = time.Minute

// Config is the full configuration.
type Config struct {
	Grid   GridConfig   `toml:"grid"`
	Solve  SolveConfig  `toml:"solve"`
	Server ServerConfig `toml:"server"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
	Render RenderConfig `toml:"render"`
}

type GridConfig struct {
	Size int `toml:"size"`
}

type SolveConfig struct {
	Algorithm solve.Algorithm `toml:"algorithm"`
	Delay     time.Duration   `toml:"delay"`
	PathDelay time.Duration   `toml:"path_delay"`

	// MaxSteps is the trace budget of a single solve.
	MaxSteps int `toml:"max_steps"`
	// Timeout bounds the wall time of a single solve, replay excluded.
	Timeout time.Duration `toml:"timeout"`
}

// DefaultSolveTimeout is the default [SolveConfig.Timeout].
const DefaultSolveTimeout = 10 * time.Second

// Options returns the solve options for these settings.
func (s SolveConfig) Options() []solve.Option {
	return []solve.Option{solve.WithMaxSteps(s.MaxSteps)}
}

// Pacing returns the replay pacing for these settings.
func (s SolveConfig) Pacing() replay.Pacing {
	return replay.Pacing{Delay: s.Delay, PathDelay: s.PathDelay}
}

type ServerConfig struct {
	Addr  string `toml:"addr"`
	Store string `toml:"store"`
	// BoardDir is used by the file store. Empty means ~/.config/gridwalk/boards.
	BoardDir string `toml:"board_dir"`
}

type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type RenderConfig struct {
	Format   render.Format `toml:"format"`
	CacheDir string        `toml:"cache_dir"`
	CellSize float64       `toml:"cell_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Grid: GridConfig{Size: grid.DefaultSize},
		Solve: SolveConfig{
			Algorithm: solve.DepthFirst,
			Delay:     100 * time.Millisecond,
			PathDelay: replay.DefaultPathDelay,
			MaxSteps:  solve.DefaultMaxSteps,
			Timeout:   DefaultSolveTimeout,
		},
		Server: ServerConfig{Addr: ":8080", Store: StoreMemory},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "gridwalk:", TTL: 24 * time.Hour},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "gridwalk", Collection: "boards"},
		Render: RenderConfig{Format: render.FormatSVG, CellSize: render.DefaultCellSize},
	}
}

// Validate normalizes c in place: size and delays are clamped and enum
// values canonicalized. Unknown enum values are errors.
func (c *Config) Validate() error {
	c.Grid.Size = grid.ClampSize(c.Grid.Size)
	c.Solve.Delay = min(max(c.Solve.Delay, 0), MaxDelay)
	c.Solve.PathDelay = min(max(c.Solve.PathDelay, 0), MaxDelay)
	if c.Solve.MaxSteps <= 0 {
		c.Solve.MaxSteps = solve.DefaultMaxSteps
	}
	if c.Solve.Timeout <= 0 {
		c.Solve.Timeout = DefaultSolveTimeout
	}

	alg, err := solve.ParseAlgorithm(string(c.Solve.Algorithm))
	if err != nil {
		return gwerr.Wrap(gwerr.ErrCodeInvalidAlgorithm, err, "[solve] algorithm")
	}
	c.Solve.Algorithm = alg

	c.Server.Store = strings.ToLower(strings.TrimSpace(c.Server.Store))
	if !slices.Contains(StoreKinds, c.Server.Store) {
		return gwerr.New(gwerr.ErrCodeInvalidInput, "[server] store must be one of %s, got %q",
			strings.Join(StoreKinds, ", "), c.Server.Store)
	}

	f, err := render.ParseFormat(string(c.Render.Format))
	if err != nil {
		return gwerr.Wrap(gwerr.ErrCodeInvalidFormat, err, "[render] format")
	}
	c.Render.Format = f
	if c.Render.CellSize <= 0 {
		c.Render.CellSize = render.DefaultCellSize
	}
	if c.Redis.TTL < 0 {
		c.Redis.TTL = 0
	}
	return nil
}

// Decode reads TOML from r over the defaults and validates the result.
// Keys gridwalk does not know are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, gwerr.Wrap(gwerr.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, gwerr.New(gwerr.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config from path, or from the first default location that
// exists when path is empty. It returns the file used, or "" for defaults.
// An explicit path that does not exist is an error.
func Load(path string) (*Config, string, error) {
	if path == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			cfg := Default()
			return cfg, "", cfg.Validate()
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", gwerr.Wrap(gwerr.ErrCodeNotFound, err, "config file %s", path)
		}
		return nil, "", fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

// SearchPaths returns the default config locations in lookup order.
func SearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "gridwalk", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "gridwalk", "config.toml")
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
