package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dori/gtdsync/internal/cli"
	"github.com/dori/gtdsync/internal/config"
)

var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("GTDSYNC_CONFIG"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli.Version = version
	return cli.Run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr)
}
