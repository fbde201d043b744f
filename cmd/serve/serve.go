// Package serve implements the serve subcommand, the long-running HTTP
// service mode.
package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/verbalis/voicedetect-go/internal/api"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/detection"
	"github.com/verbalis/voicedetect-go/internal/logging"
	"github.com/verbalis/voicedetect-go/internal/observability"
)

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection HTTP service",
		Long:  `Load the trained model and serve prediction requests until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	cmd.Flags().StringVar(&settings.HTTP.Host, "host", settings.HTTP.Host, "Address to listen on")
	cmd.Flags().StringVar(&settings.HTTP.Port, "port", settings.HTTP.Port, "Port to listen on")

	return cmd
}

func run(settings *conf.Settings) error {
	logger, closeLog, err := logging.NewFileLogger(&settings.Log, "serve")
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // rotation writer, best effort

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	// A service without a model cannot answer anything useful, so a missing
	// or mismatched artifact stops startup here rather than failing every
	// request later.
	engine, err := detection.NewEngine(settings, metrics)
	if err != nil {
		return err
	}

	info := engine.Info()
	logger.Info("model loaded",
		"path", settings.ModelPath,
		"trees", info.NumTrees,
		"features", info.NumFeatures)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.New(settings, engine, metrics)
	return server.Start(ctx)
}
