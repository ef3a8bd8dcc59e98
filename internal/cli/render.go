package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/pkg/cache"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// renderOpts holds the flags for the render command.
type renderOpts struct {
	output    string
	formats   []string
	algorithm string
	cellSize  float64
	noCache   bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		in   gridInput
		opts renderOpts
	)
	cmd := &cobra.Command{
		Use:   "render [layout]",
		Short: "Draw a grid as text, DOT, SVG or PNG",
		Long: `Render a grid, optionally solved first with --algo so visited cells and
the path are drawn.

SVG and PNG go through Graphviz (neato) and are cached locally; --no-cache
skips the cache. Text formats print to stdout unless --output is given.
Binary formats need --output, which is used as the base name when several
formats are requested.`,
		Example: `  gridwalk render maze.toml -f svg -o maze
  gridwalk render --rows ..#,#..,... --algo bfs -f ansi
  gridwalk render --size 12 -f dot,png -o open`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			g, err := in.load(cmd, args, cfg)
			if err != nil {
				return err
			}
			formats, err := parseFormats(opts.formats, cfg.Render.Format)
			if err != nil {
				return err
			}
			if opts.cellSize <= 0 {
				opts.cellSize = cfg.Render.CellSize
			}
			store, err := c.newCache(opts.noCache)
			if err != nil {
				return err
			}
			defer store.Close()
			return c.runRender(cmd, g, formats, store, opts)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "format(s): text, ansi, dot, svg, png (default from config)")
	cmd.Flags().StringVarP(&opts.algorithm, "algo", "a", "", "solve first and overlay the result: dfs, bfs")
	cmd.Flags().Float64Var(&opts.cellSize, "cell-size", 0, "cell edge in inches for Graphviz output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	return cmd
}

// parseFormats parses the --format values, defaulting to def.
func parseFormats(names []string, def render.Format) ([]render.Format, error) {
	if len(names) == 0 {
		return []render.Format{def}, nil
	}
	formats := make([]render.Format, 0, len(names))
	for _, name := range names {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func (c *CLI) runRender(cmd *cobra.Command, g *grid.Grid, formats []render.Format, store cache.Cache, opts renderOpts) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ropts := render.Options{CellSize: opts.cellSize}
	if opts.algorithm != "" {
		alg, err := solve.ParseAlgorithm(opts.algorithm)
		if err != nil {
			return err
		}
		cfg, err := c.config()
		if err != nil {
			return err
		}
		res, err := solveWithin(ctx, cfg, alg, g)
		if err != nil {
			return err
		}
		g, ropts.Path = res.Grid, res.Path
	}

	for _, f := range formats {
		path := outputPath(opts.output, f, len(formats) > 1)
		if path == "" && f.Binary() {
			return fmt.Errorf("%s output needs --output", f)
		}
		data, cached, err := c.renderOne(ctx, cmd, store, f, g, ropts)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(out, strings.TrimRight(string(data), "\n"))
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess(out, "Rendered %s", f)
		printFile(out, path)
		printStats(out, &cached, fmt.Sprintf("%dx%d", g.Size(), g.Size()), fmt.Sprintf("%d bytes", len(data)))
	}
	return nil
}

// renderOne renders f through the cache, with a spinner for Graphviz formats.
func (c *CLI) renderOne(ctx context.Context, cmd *cobra.Command, store cache.Cache, f render.Format, g *grid.Grid, opts render.Options) ([]byte, bool, error) {
	prog := newProgress(c.Logger)
	var spin *Spinner
	if f == render.FormatSVG || f == render.FormatPNG {
		spin = newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s...", f))
		spin.Start()
	}
	data, cached, err := cache.Rendered(ctx, store, f, g, opts, cache.DefaultTTL)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", f, err)
	}
	prog.done("Rendered grid", "format", f, "cached", cached)
	return data, cached, nil
}

// outputPath returns where format f goes: base as given for a single format,
// base plus the format's extension when several are written, or "" for stdout.
func outputPath(base string, f render.Format, multi bool) string {
	if base == "" {
		return ""
	}
	if !multi {
		return base
	}
	return strings.TrimSuffix(base, f.Ext()) + f.Ext()
}
