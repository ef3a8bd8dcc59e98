package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridwalk/pkg/config"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file locations in lookup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, used, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.configPath != "" {
				printKeyValue(out, "using", used)
				return nil
			}
			for _, p := range config.SearchPaths() {
				if p == used {
					printKeyValue(out, "using", p)
				} else {
					printKeyValue(out, "candidate", p)
				}
			}
			if used == "" {
				printDetail(out, "no config file found, using defaults")
			}
			return nil
		},
	})
	return cmd
}
