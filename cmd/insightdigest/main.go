package main

import (
	"github.com/joho/godotenv"

	"InsightDigest/internal/cli"
)

func main() {
	// Missing .env files are fine; real environment always wins.
	_ = godotenv.Load()

	cli.Execute()
}
