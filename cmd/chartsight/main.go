package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chartsight/internal/cli"
	"chartsight/internal/config"
	"chartsight/internal/logging"
)

func main() {
	// Optional .env for OPENAI_API_KEY and friends.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
