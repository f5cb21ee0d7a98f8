package main

import (
	"context"
	"log"
	"os"

	"github.com/dverbeek84/oaibridge/internal/harvester"
	"github.com/dverbeek84/oaibridge/internal/harvester/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := harvester.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
