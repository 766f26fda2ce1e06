package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MR4white/tigase-mongodb/internal/cmd/migrate"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "tigase-mongodb",
		Usage: "MongoDB persistence tooling for the messaging server",
		Commands: []*cli.Command{
			migrate.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
