// Command regbot answers questions about the ESTG Regulamento Pedagógico.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/regbot/internal/adapters/driving/cli"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.services)
	return cli.Execute(ctx)
}
