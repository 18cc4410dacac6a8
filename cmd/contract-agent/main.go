package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"contract-agent/internal/logger"

	"github.com/joho/godotenv"
)

var log = logger.Named("cli")

func main() {
	logger.Configure("")
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to load .env: %v", err)
	}
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
