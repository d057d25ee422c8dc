package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/rustyeddy/cryptobot/cmd/backtest/cmd"
)

func main() {
	// a missing .env is fine, the real environment still applies
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
