package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/config"
)

var (
	flagConfigFile string
	flagEnvFile    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dofuscap",
		Short: "Passive traffic capture and decoding for the game protocol",
	}

	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to a YAML/JSON config file")
	root.PersistentFlags().StringVar(&flagEnvFile, "env", ".env", "path to a .env file")

	root.AddCommand(newCaptureCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newSchemaCmd())

	return root
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func loadConfig() (*config.Config, error) {
	return config.Load(flagConfigFile, flagEnvFile)
}
