package main

import (
	"context"
	"log"

	"scentara/internal/cli"
	"scentara/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	app.Run(context.Background())
}
