package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"PostalService/internal/app"
	"PostalService/internal/server"
	"PostalService/pkg/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, application, cfg); err != nil {
		log.Printf("%v", err)
	}
}
