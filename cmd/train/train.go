// Package train implements the train subcommand.
package train

import (
	"github.com/spf13/cobra"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/trainer"
)

// Command creates the train subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from labeled audio samples",
		Long:  `Train the classifier from audio files under <data-dir>/human and <data-dir>/ai and save the resulting model artifact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return trainer.Run(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&settings.DataDir, "data", settings.DataDir, "Training data directory")

	return cmd
}
