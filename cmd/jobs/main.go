// Command jobs runs FinTrack's background jobs once, outside the API
// server's scheduler. It is meant for cron hosts and manual backfills.
package main

import (
	"os"

	"fintrack/internal/logger"
)

func main() {
	logger.InitWithFile(os.Getenv("ENV"), os.Getenv("LOG_FILE"))
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
