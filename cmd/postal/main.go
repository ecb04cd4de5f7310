package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PostalService/internal/app"
	"PostalService/internal/scraper"
	"PostalService/pkg/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var f queryFlags
	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	site := flag.String("site", "", "Marketplace to search (see -list-sites)")
	mode := flag.String("mode", "blocking", "Execution mode: blocking or concurrent")
	listSites := flag.Bool("list-sites", false, "Print the supported sites and their filter values, then exit")
	f.register(flag.CommandLine)
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if *listSites {
		printJSON(application.Sites())
		return
	}

	if *site == "" {
		fmt.Fprintln(os.Stderr, "missing -site")
		flag.Usage()
		os.Exit(2)
	}
	q, err := f.query()
	if err != nil {
		log.Fatalf("Invalid query: %v", err)
	}
	m, err := scraper.ParseMode(*mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items, err := application.Search(ctx, *site, q, m)
	if err != nil {
		log.Printf("Search failed: %v", err)
		application.Close()
		os.Exit(1)
	}
	printJSON(items)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
