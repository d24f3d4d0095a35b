package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

var (
	flagConfig   string
	flagLogLevel string
	flagServer   string
	flagAPI      string
	flagSender   string
	flagToken    string
)

var rootCmd = &cobra.Command{
	Use:           "wirechat",
	Short:         "Terminal client for wirechat rooms",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to client config file")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flagServer, "server", "", "WebSocket base URL, e.g. ws://localhost:8000")
	pf.StringVar(&flagAPI, "api", "", "HTTP API base URL, e.g. http://localhost:8000")
	pf.StringVar(&flagSender, "sender", "", "display name for outbound messages")
	pf.StringVar(&flagToken, "token", "", "bearer token forwarded to the server")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(roomsCmd)
}

// loadConfig resolves file/env config, then lets flags win.
func loadConfig() (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New(flagLogLevel)
	cfg, _, err := config.Load(bootstrap, flagConfig)
	if err != nil {
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(config.Config{
		ServerURL:  flagServer,
		APIBaseURL: flagAPI,
		Sender:     flagSender,
		Token:      flagToken,
		LogLevel:   flagLogLevel,
	})
	logger := log.New(cfg.LogLevel)
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wirechat:", err)
		os.Exit(1)
	}
}
