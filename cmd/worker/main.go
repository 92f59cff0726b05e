// Package main runs the Zuora discovery Temporal worker.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/nucleus/ucl-zuora/internal/activities"
	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/config"
	"github.com/nucleus/ucl-zuora/internal/discovery"
)

func main() {
	configPath := flag.String("config", os.Getenv("ZUORA_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.Logger(os.Stderr)

	log.Printf("Starting Zuora discovery worker: address=%s namespace=%s queue=%s",
		cfg.Temporal.Address, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue)

	store, err := catalogstore.Open(context.Background(), cfg.StoreConfig())
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	acts := activities.NewActivities(discovery.NewRunner(nil, store, cfg.EndpointParams(), logger))
	w.RegisterActivity(acts.DiscoverCatalog)

	log.Printf("Registered 1 activity: DiscoverCatalog")

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
