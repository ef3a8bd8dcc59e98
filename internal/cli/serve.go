package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/internal/metrics"
	"github.com/matzehuels/gridwalk/internal/server"
	"github.com/matzehuels/gridwalk/pkg/cache"
	"github.com/matzehuels/gridwalk/pkg/config"
	"github.com/matzehuels/gridwalk/pkg/session"
	"github.com/matzehuels/gridwalk/pkg/session/mongo"
	"github.com/matzehuels/gridwalk/pkg/session/redis"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		storeKind string
		noMetrics bool
		noCache   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serve the browser page and the board API.

Solves stream their steps as Server-Sent Events at each board's pace.
Boards are kept in memory, on disk, in Redis or in MongoDB per [server]
store; with Redis the run lock and render cache are shared between
instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if storeKind != "" {
				cfg.Server.Store = storeKind
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			b, err := c.openBackend(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer b.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithCache(b.cache),
				server.WithPathDelay(cfg.Solve.PathDelay),
				server.WithCellSize(cfg.Render.CellSize),
				server.WithSolveLimits(cfg.Solve.MaxSteps, cfg.Solve.Timeout),
			}
			if !noMetrics {
				m := metrics.New()
				m.Install()
				opts = append(opts, server.WithMetrics(m))
			}

			mgr := session.NewManager(b.store, b.locker,
				session.WithTTL(b.ttl),
				session.WithMaxSteps(cfg.Solve.MaxSteps),
				session.WithSolveTimeout(cfg.Solve.Timeout),
				session.WithDefaults(cfg.Solve.Algorithm, int(cfg.Solve.Delay.Milliseconds())),
			)
			return server.New(mgr, opts...).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&storeKind, "store", "", "board store: memory, file, redis, mongo (default from config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

// backend is the storage a server runs on.
type backend struct {
	store  session.Store
	locker session.Locker
	cache  cache.Cache
	ttl    time.Duration
}

func (b *backend) Close() error {
	b.cache.Close()
	return b.store.Close()
}

// openBackend connects the configured board store with a matching locker
// and render cache.
func (c *CLI) openBackend(ctx context.Context, cfg *config.Config, noCache bool) (*backend, error) {
	renders, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	b := &backend{cache: renders, ttl: session.DefaultTTL}

	switch cfg.Server.Store {
	case config.StoreMemory:
		b.store = session.NewMemoryStore()
	case config.StoreFile:
		fs, err := session.NewFileStore(cfg.Server.BoardDir)
		if err != nil {
			return nil, err
		}
		b.store = fs
	case config.StoreRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		b.store = rs
		b.locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		b.ttl = cfg.Redis.TTL
		if !noCache {
			renders.Close()
			b.cache = cache.NewRedisCache(rs.Client(), cfg.Redis.Prefix)
		}
	case config.StoreMongo:
		ms, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		b.store = ms
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Server.Store)
	}
	c.Logger.Info("board store ready", "store", b.store.Name(), "ttl", b.ttl)
	return b, nil
}
