package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/pkg/config"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// solveOpts holds the flags shared by "solve" and "board solve".
type solveOpts struct {
	algorithm string
	format    string
	trace     bool
	delay     time.Duration
}

func (o *solveOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.algorithm, "algo", "a", "", "algorithm: dfs, bfs (default from config)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output: text, ansi, json")
	cmd.Flags().BoolVarP(&o.trace, "trace", "t", false, "print every step, paced by --delay")
	cmd.Flags().DurationVar(&o.delay, "delay", 0, "pause between traced steps (default from config)")
}

// resolve fills unset options from cfg and fallback, and checks the format.
func (o *solveOpts) resolve(cfg *config.Config, fallback solve.Algorithm) (solve.Algorithm, replay.Pacing, error) {
	alg := fallback
	if o.algorithm != "" {
		a, err := solve.ParseAlgorithm(o.algorithm)
		if err != nil {
			return "", replay.Pacing{}, err
		}
		alg = a
	}
	if alg == "" {
		alg = cfg.Solve.Algorithm
	}
	switch o.format {
	case "text", "ansi", "json":
	default:
		return "", replay.Pacing{}, fmt.Errorf("unknown output format %q (want text, ansi or json)", o.format)
	}
	pacing := cfg.Solve.Pacing()
	if o.delay > 0 {
		pacing.Delay = min(o.delay, config.MaxDelay)
	}
	return alg, pacing, nil
}

func (c *CLI) solveCommand() *cobra.Command {
	var (
		in   gridInput
		opts solveOpts
	)
	cmd := &cobra.Command{
		Use:   "solve [layout]",
		Short: "Find a path from the top-left to the bottom-right cell",
		Long: `Solve a grid with depth-first or breadth-first search.

The grid comes from a layout file (.toml), a text file of rows such as
"..#." ("-" reads stdin), --rows, or an open grid of --size.

With --trace every step is printed as it is replayed, paced like the
interactive player.`,
		Example: `  gridwalk solve --size 8 --algo bfs
  gridwalk solve --rows ..#,#..,... --trace --delay 200ms
  gridwalk solve maze.toml -f json`,
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
			alg, pacing, err := opts.resolve(cfg, "")
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), cmd.OutOrStdout(), cfg, g, alg, pacing, opts)
		},
	}
	in.register(cmd)
	opts.register(cmd)
	return cmd
}

// runSolve solves g and prints the result.
func runSolve(ctx context.Context, w io.Writer, cfg *config.Config, g *grid.Grid, alg solve.Algorithm, pacing replay.Pacing, opts solveOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	res, err := solveWithin(ctx, cfg, alg, g)
	if err != nil {
		return err
	}
	prog.done("Solved grid", "size", g.Size(), "alg", alg, "steps", len(res.Steps))
	return presentResult(ctx, w, res, pacing, opts)
}

// solveWithin solves g within the configured step budget and timeout.
func solveWithin(ctx context.Context, cfg *config.Config, alg solve.Algorithm, g *grid.Grid) (*solve.Result, error) {
	solveCtx, cancel := context.WithTimeout(ctx, cfg.Solve.Timeout)
	defer cancel()
	res, err := solve.Solve(solveCtx, alg, g, cfg.Solve.Options()...)
	switch {
	case errors.Is(err, solve.ErrStepLimit):
		return nil, fmt.Errorf("%s gave up after %d steps, try BFS or raise [solve] max_steps: %w", alg, cfg.Solve.MaxSteps, err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, fmt.Errorf("%s gave up after %s, try BFS or raise [solve] timeout: %w", alg, cfg.Solve.Timeout, err)
	}
	return res, err
}

// presentResult replays the trace when asked to, then prints the result.
func presentResult(ctx context.Context, w io.Writer, res *solve.Result, pacing replay.Pacing, opts solveOpts) error {
	if opts.trace {
		logger := loggerFromContext(ctx)
		logger.Debug("replaying trace", "delay", pacing.Delay, "total", pacing.Total(res.Steps))
		err := replay.New(pacing).Play(ctx, res.Steps, replay.SinkFunc(func(_ context.Context, s solve.Step) error {
			_, err := fmt.Fprintln(w, StyleDim.Render(s.String()))
			return err
		}))
		if err != nil {
			return err
		}
	}

	return printResult(w, res, opts.format)
}

// printResult prints the solved grid with its path, then a stats line.
func printResult(w io.Writer, res *solve.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	ropts := render.Options{Path: res.Path}
	if format == "ansi" {
		fmt.Fprintln(w, render.ANSI(res.Grid, ropts))
	} else {
		fmt.Fprintln(w, render.Text(res.Grid, ropts))
	}

	if res.Found {
		printSuccess(w, "%s found a path in %s moves", res.Algorithm, StyleNumber.Render(fmt.Sprint(res.Moves())))
	} else {
		printWarning(w, "%s found no path", res.Algorithm)
	}
	printStats(w, nil,
		fmt.Sprintf("%dx%d", res.Grid.Size(), res.Grid.Size()),
		fmt.Sprintf("%d visited", res.Visited),
		fmt.Sprintf("%d steps", len(res.Steps)),
	)
	return nil
}
