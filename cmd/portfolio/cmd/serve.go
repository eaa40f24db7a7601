package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio/ranger"
	"github.com/xy-planning-network/portfolio/storage"
)

// serveCmd runs migrations, then serves the API until a shutdown signal arrives
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rng, err := ranger.New(ranger.WithContext(cmd.Context()))
		if err != nil {
			return err
		}

		if s, ok := rng.EmitMediaStore().(*storage.Storage); ok {
			if err := s.EnsureBucket(cmd.Context()); err != nil {
				rng.EmitLogger().Warn(fmt.Sprintf("media uploads may fail: %s", err), nil)
			}
		}

		return rng.Guide()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
