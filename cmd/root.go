package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/verbalis/voicedetect-go/cmd/file"
	"github.com/verbalis/voicedetect-go/cmd/serve"
	"github.com/verbalis/voicedetect-go/cmd/train"
	"github.com/verbalis/voicedetect-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicedetect",
		Short: "AI-generated voice detection service",
		Long:  `voicedetect screens audio recordings for synthetic speech using acoustic features and a random forest classifier.`,
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		train.Command(settings),
		file.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures global flags, bound to viper so they override config
// file and environment values.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.ModelPath, "model", "m", settings.ModelPath, "Path to the model artifact")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
