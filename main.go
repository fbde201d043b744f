package main

import (
	"os"

	"github.com/verbalis/voicedetect-go/cmd"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/logging"
)

func main() {
	settings := conf.Setting()

	logging.Init(settings.Debug)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
