// Package main runs one Zuora discovery pass and prints the catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/config"
	"github.com/nucleus/ucl-zuora/internal/discovery"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("ZUORA_CONFIG"), "path to YAML config")
		forceREST  = flag.Bool("force-rest", false, "probe availability with the REST export API")
		streams    = flag.String("streams", "", "comma-separated stream names to discover")
		out        = flag.String("out", "", "write the catalog to this file instead of stdout")
		save       = flag.Bool("save", false, "save the catalog to the configured store")
		runID      = flag.String("run-id", "", "artifact run ID (generated when empty)")
		list       = flag.Bool("list", false, "list saved catalog URIs and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *forceREST {
		cfg.Zuora.ForceREST = true
	}
	if *streams != "" {
		cfg.Zuora.Streams = strings.Split(*streams, ",")
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *list {
		store, err := catalogstore.Open(ctx, cfg.StoreConfig())
		if err != nil {
			log.Fatalf("failed to open catalog store: %v", err)
		}
		defer store.Close()

		uris, err := discovery.NewRunner(nil, store, nil, logger).List(ctx)
		if err != nil {
			log.Fatalf("list catalogs: %v", err)
		}
		for _, uri := range uris {
			fmt.Println(uri)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var store catalogstore.Store
	if *save {
		store, err = catalogstore.Open(ctx, cfg.StoreConfig())
		if err != nil {
			log.Fatalf("failed to open catalog store: %v", err)
		}
		defer store.Close()
	}

	runner := discovery.NewRunner(nil, store, cfg.EndpointParams(), logger)
	result, err := runner.Run(ctx, discovery.Request{RunID: *runID})
	if err != nil {
		log.Fatalf("discovery failed: %v", err)
	}

	data, err := result.Catalog.Marshal()
	if err != nil {
		log.Fatalf("encode catalog: %v", err)
	}
	data = append(data, '\n')

	if *out == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("write catalog: %v", err)
		}
	} else if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write catalog: %v", err)
	}

	if result.URI != "" {
		fmt.Fprintf(os.Stderr, "saved %d streams to %s\n", result.StreamCount(), result.URI)
	}
}
