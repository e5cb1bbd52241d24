package main

import (
	"os"

	"sjsage522/leadworker/cmd"
	"sjsage522/leadworker/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Default.Error().Err(err).Msg("leadworker failed")
		os.Exit(1)
	}
}
