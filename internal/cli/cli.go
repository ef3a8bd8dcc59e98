package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/pkg/buildinfo"
	"github.com/matzehuels/gridwalk/pkg/cache"
	"github.com/matzehuels/gridwalk/pkg/config"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gridwalk"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Gridwalk animates depth-first and breadth-first search on a grid",
		Long: `Gridwalk builds square grids with walls and walks them from the top-left
to the bottom-right corner with depth-first or breadth-first search, replaying
every visit, backtrack and frontier at a chosen pace.

Grids can be solved in the terminal, played interactively, rendered with
Graphviz, stored as boards, or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/gridwalk/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.boardCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Factories
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.cfg = cfg
	return cfg, nil
}

// newCache returns the render cache, or a null cache when disabled or when
// no cache directory is available.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Debug("render cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newBoardManager returns a manager over the local board directory.
func (c *CLI) newBoardManager() (*session.Manager, *session.FileStore, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewFileStore(cfg.Server.BoardDir)
	if err != nil {
		return nil, nil, err
	}
	mgr := session.NewManager(store, nil,
		session.WithTTL(0),
		session.WithMaxSteps(cfg.Solve.MaxSteps),
		session.WithSolveTimeout(cfg.Solve.Timeout),
		session.WithDefaults(cfg.Solve.Algorithm, int(cfg.Solve.Delay.Milliseconds())),
	)
	return mgr, store, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the render cache directory: [render] cache_dir when set,
// otherwise $XDG_CACHE_HOME/gridwalk/renders or ~/.cache/gridwalk/renders.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Render.CacheDir != "" {
		return cfg.Render.CacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName, "renders"), nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Grid Input
// =============================================================================

// gridInput holds the flags that choose which grid a command works on.
type gridInput struct {
	size int
	rows []string
}

func (in *gridInput) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&in.size, "size", "n", 0, fmt.Sprintf("open grid size, %d to %d (default from config)", grid.MinSize, grid.MaxSize))
	cmd.Flags().StringSliceVar(&in.rows, "rows", nil, "grid rows, e.g. --rows ..#,...,#..")
}

// load returns the grid from a layout file argument, --rows, or an open
// grid of --size, in that order. Files ending in .toml are layouts; anything
// else is read as text rows, with "-" meaning stdin.
func (in *gridInput) load(cmd *cobra.Command, args []string, cfg *config.Config) (*grid.Grid, error) {
	var (
		g   *grid.Grid
		err error
	)
	switch {
	case len(args) > 0 && args[0] == "-":
		var data []byte
		data, err = io.ReadAll(cmd.InOrStdin())
		if err == nil {
			g, err = grid.ParseText(string(data))
		}
	case len(args) > 0 && filepath.Ext(args[0]) == ".toml":
		g, err = grid.ReadLayoutFile(args[0])
	case len(args) > 0:
		var data []byte
		data, err = os.ReadFile(args[0])
		if err == nil {
			g, err = grid.ParseText(string(data))
		}
	case len(in.rows) > 0:
		g, err = grid.FromRows(in.rows)
	default:
		size := in.size
		if size == 0 {
			size = cfg.Grid.Size
		}
		return grid.New(grid.ClampSize(size))
	}
	if err != nil {
		return nil, err
	}
	if n := g.Size(); n < grid.MinSize || n > grid.MaxSize {
		return nil, fmt.Errorf("grid is %dx%d, size must be %d to %d", n, n, grid.MinSize, grid.MaxSize)
	}
	return g, nil
}
