package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/internal/tui"
)

func (c *CLI) playCommand() *cobra.Command {
	var in gridInput
	opts := solveOpts{format: "text"}
	cmd := &cobra.Command{
		Use:   "play [layout]",
		Short: "Edit a grid and watch the search interactively",
		Long: `Open the interactive player.

Move with the arrow keys or hjkl, toggle walls with x, switch the algorithm
with tab, resize with + and -, and start the search with enter. Esc stops a
running search, r resets the visited cells, q quits.`,
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
			c.Logger.Debug("starting player", "size", g.Size(), "alg", alg, "delay", pacing.Delay)
			return tui.Run(cmd.Context(), tui.Options{
				Layout:    g,
				Size:      g.Size(),
				Algorithm: alg,
				Pacing:    pacing,
				MaxSteps:  cfg.Solve.MaxSteps,
				Timeout:   cfg.Solve.Timeout,
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&opts.algorithm, "algo", "a", "", "initial algorithm: dfs, bfs (default from config)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "pause between steps (default from config)")
	return cmd
}
