package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Extract changed sources and regenerate stale artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return zerr.Wrap(err, "failed to determine working directory")
			}
			configFile, _ := cmd.Flags().GetString("config")
			c.app.SetConfigFile(configFile)
			return c.app.Run(cmd.Context(), cwd)
		},
	}
}
