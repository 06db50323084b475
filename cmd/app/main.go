package main

import (
	"flag"
	"log"
	"os"

	"github.com/Pulkit320/market-scope/internal/di"
	"github.com/Pulkit320/market-scope/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	serve := flag.Bool("serve", false, "keep serving the export over HTTP after the run")
	output := flag.String("output", "", "override output.path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *output != "" {
		cfg.Output.Path = *output
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal when serving)
	err = app.Run(*serve)
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
