package main

import (
	"os"

	"github.com/cleared-dev/bursar/internal/commands"
	"github.com/cleared-dev/bursar/internal/logger"
)

func main() {
	err := commands.NewRootCommand().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
