package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/connectz-backend/internal"
	"github.com/rocketscienceinc/connectz-backend/internal/config"
)

func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket and HTTP servers",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(flagConfig)

			conf, err := config.Load(path)
			if err != nil {
				return err
			}

			if level, _ := cmd.Flags().GetString(flagLogLevel); level != "" {
				conf.LogLevel = level
			}

			if err = app.RunApp(cmd.Context(), newLogger(os.Stdout, conf.LogLevel), conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}
}
