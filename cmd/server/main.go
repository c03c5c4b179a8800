package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/posmart/internal/buildinfo"
	"github.com/dmitrijs2005/posmart/internal/server"
	"github.com/dmitrijs2005/posmart/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	if cfg.IssueStoreID != "" {
		if err := server.IssueToken(os.Stdout, cfg); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
