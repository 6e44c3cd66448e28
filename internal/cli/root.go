package cli

import (
	"io"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "connectz",
		Short: "Five in a row on a 10x10 board against a minimax bot",
		Long: heredoc.Doc(`connectz serves the game over websocket and HTTP, or
			plays it in the terminal.

			Players alternate placing X and O on any empty cell. The
			first to line up five in a row, column or diagonal wins.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringP(flagConfig, "c", "config.yml", "Path to the yaml config file")
	root.PersistentFlags().String(flagLogLevel, "", "Log level: debug, info, warn or error")

	root.AddCommand(Serve())
	root.AddCommand(Play())

	return root
}

// newLogger writes JSON logs to w. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
