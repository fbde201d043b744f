// Package file implements the file subcommand for classifying a single
// local audio file.
package file

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/detection"
)

// Command creates the file subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Classify a local audio file",
		Long:  `Run the detection pipeline on a single audio file and print the verdict as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := detection.NewEngine(settings, nil)
			if err != nil {
				return err
			}

			result, err := engine.PredictFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
