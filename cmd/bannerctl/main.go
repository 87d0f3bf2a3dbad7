package main

import (
	"os"

	"github.com/joho/godotenv"

	"banner-creator/internal/config"
)

func main() {
	_ = godotenv.Load()

	root := newRootCmd(config.Load)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
