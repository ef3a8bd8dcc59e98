package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
	"github.com/matzehuels/gridwalk/pkg/session"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// boardCommand groups the local board commands. Boards live as JSON files
// under [server] board_dir (default ~/.config/gridwalk/boards).
func (c *CLI) boardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage stored boards",
		Long: `Create, edit and solve boards stored on disk.

Board IDs may be shortened to any unique prefix.`,
	}
	cmd.AddCommand(c.boardNewCommand())
	cmd.AddCommand(c.boardWallCommand())
	cmd.AddCommand(c.boardSetCommand())
	cmd.AddCommand(c.boardShowCommand())
	cmd.AddCommand(c.boardSolveCommand())
	cmd.AddCommand(c.boardListCommand())
	cmd.AddCommand(c.boardRemoveCommand())
	return cmd
}

func (c *CLI) boardNewCommand() *cobra.Command {
	var in gridInput
	cmd := &cobra.Command{
		Use:   "new [layout]",
		Short: "Create a board, open or from a layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			g, err := in.load(cmd, args, cfg)
			if err != nil {
				return err
			}
			mgr, _, err := c.newBoardManager()
			if err != nil {
				return err
			}
			b, err := mgr.Create(ctx, g.Size())
			if err != nil {
				return err
			}
			for _, w := range g.Walls() {
				if b, _, err = mgr.ToggleWall(ctx, b.ID, w); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Created board %s", StyleValue.Render(b.ID))
			printStats(out, nil, fmt.Sprintf("%dx%d", b.Size, b.Size), fmt.Sprintf("%d walls", len(b.Walls)))
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func (c *CLI) boardWallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "wall <id> <row,col>...",
		Short:   "Toggle walls on a board",
		Example: `  gridwalk board wall 3f2a 0,1 1,1 2,1`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			id, err := resolveBoardID(ctx, store, args[0])
			if err != nil {
				return err
			}
			cells := make([]grid.Coord, 0, len(args)-1)
			for _, arg := range args[1:] {
				cell, err := parseCell(arg)
				if err != nil {
					return err
				}
				cells = append(cells, cell)
			}

			out := cmd.OutOrStdout()
			var b *session.Board
			for _, cell := range cells {
				var state grid.State
				b, state, err = mgr.ToggleWall(ctx, id, cell)
				if err != nil {
					return err
				}
				printInfo(out, "%s is now %s", cell, state)
			}
			return printBoard(out, b, "text")
		},
	}
}

func (c *CLI) boardSetCommand() *cobra.Command {
	var (
		algorithm string
		delay     time.Duration
		size      int
	)
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change a board's algorithm, delay or size",
		Long:  `Change a board's settings. Changing the size clears all walls.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			id, err := resolveBoardID(ctx, store, args[0])
			if err != nil {
				return err
			}
			b, err := mgr.Get(ctx, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("size") {
				if b, err = mgr.Resize(ctx, id, size); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("algo") || cmd.Flags().Changed("delay") {
				var alg solve.Algorithm
				if algorithm != "" {
					if alg, err = solve.ParseAlgorithm(algorithm); err != nil {
						return err
					}
				}
				var ms *int
				if cmd.Flags().Changed("delay") {
					v := int(delay.Milliseconds())
					ms = &v
				}
				if b, err = mgr.Configure(ctx, id, alg, ms); err != nil {
					return err
				}
			}
			return printBoard(cmd.OutOrStdout(), b, "text")
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algo", "a", "", "algorithm: dfs, bfs")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between replayed steps")
	cmd.Flags().IntVarP(&size, "size", "n", 0, "new size; clears walls")
	return cmd
}

func (c *CLI) boardShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			id, err := resolveBoardID(ctx, store, args[0])
			if err != nil {
				return err
			}
			b, err := mgr.Get(ctx, id)
			if err != nil {
				return err
			}
			if format == "toml" {
				g, err := b.Grid()
				if err != nil {
					return err
				}
				return grid.EncodeLayout(cmd.OutOrStdout(), g)
			}
			return printBoard(cmd.OutOrStdout(), b, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output: text, ansi, toml")
	return cmd
}

func (c *CLI) boardSolveCommand() *cobra.Command {
	var opts solveOpts
	cmd := &cobra.Command{
		Use:   "solve <id>",
		Short: "Solve a board with its configured algorithm",
		Long: `Solve a board. The board is locked for the duration of the run, so a
concurrent solve or edit of the same board is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			id, err := resolveBoardID(ctx, store, args[0])
			if err != nil {
				return err
			}
			b, err := mgr.Get(ctx, id)
			if err != nil {
				return err
			}
			alg, pacing, err := opts.resolve(cfg, b.Algorithm)
			if err != nil {
				return err
			}
			if opts.delay == 0 {
				pacing.Delay = b.Delay()
			}

			run, err := mgr.StartRun(ctx, id, alg)
			if err != nil {
				return err
			}
			defer run.Finish(context.WithoutCancel(ctx))
			return presentResult(ctx, cmd.OutOrStdout(), run.Result, pacing, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) boardListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored boards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			ids, err := mgr.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				printInfo(out, "No boards in %s", store.Path())
				return nil
			}

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				b, err := mgr.Get(ctx, id)
				if err != nil {
					continue
				}
				rows = append(rows, []string{
					b.ID,
					fmt.Sprintf("%dx%d", b.Size, b.Size),
					strconv.Itoa(len(b.Walls)),
					b.Algorithm.String(),
					b.Delay().String(),
					b.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			printTable(out, []string{"ID", "Size", "Walls", "Algo", "Delay", "Updated"}, rows)
			return nil
		},
	}
}

func (c *CLI) boardRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete boards",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, store, err := c.newBoardManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := resolveBoardID(ctx, store, arg)
				if err != nil {
					return err
				}
				if err := mgr.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess(out, "Removed board %s", id)
			}
			return nil
		},
	}
}

// resolveBoardID expands a unique ID prefix to the full board ID.
func resolveBoardID(ctx context.Context, store session.Store, prefix string) (string, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("board prefix %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("board %q: %w", prefix, session.ErrNotFound)
	}
	return match, nil
}

// parseCell parses "row,col".
func parseCell(s string) (grid.Coord, error) {
	r, c, ok := strings.Cut(s, ",")
	if !ok {
		return grid.Coord{}, fmt.Errorf("cell %q: want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("cell %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("cell %q: %w", s, err)
	}
	return grid.At(row, col), nil
}

func printBoard(w io.Writer, b *session.Board, format string) error {
	g, err := b.Grid()
	if err != nil {
		return err
	}
	switch format {
	case "ansi":
		fmt.Fprintln(w, render.ANSI(g, render.Options{}))
	case "text":
		fmt.Fprintln(w, render.Text(g, render.Options{}))
	default:
		return fmt.Errorf("unknown output format %q (want text, ansi or toml)", format)
	}
	printStats(w, nil,
		b.ID,
		fmt.Sprintf("%dx%d", b.Size, b.Size),
		fmt.Sprintf("%d walls", len(b.Walls)),
		b.Algorithm.String(),
		b.Delay().String(),
	)
	return nil
}
