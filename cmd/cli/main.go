// Command cli is the posmart till: an interactive REPL over the local
// catalog and sales queue, plus the worker gateway that serves the web page.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/posmart/internal/buildinfo"
	"github.com/dmitrijs2005/posmart/internal/client/cli"
	"github.com/dmitrijs2005/posmart/internal/client/config"
)

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start till: %w", err)
	}
	app.Run(ctx)
	return nil
}

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
