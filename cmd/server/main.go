// Package main runs the Zuora discovery gRPC server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nucleus/ucl-zuora/internal/catalogstore"
	"github.com/nucleus/ucl-zuora/internal/config"
	"github.com/nucleus/ucl-zuora/internal/discovery"
	"github.com/nucleus/ucl-zuora/internal/gateway"
)

func main() {
	configPath := flag.String("config", os.Getenv("ZUORA_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Requests may carry their own credentials, so only log here.
	if err := cfg.Validate(); err != nil {
		log.Printf("config incomplete, requests must fill the gaps: %v", err)
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalogstore.Open(ctx, cfg.StoreConfig())
	if err != nil {
		log.Fatalf("failed to open catalog store: %v", err)
	}
	defer store.Close()

	runner := discovery.NewRunner(nil, store, cfg.EndpointParams(), logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	gateway.RegisterDiscoveryServer(grpcServer, gateway.NewService(runner, logger))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(gateway.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	// Enable reflection for debugging with grpcurl
	reflection.Register(grpcServer)

	go func() {
		<-ctx.Done()
		log.Printf("shutting down")
		healthSrv.Shutdown()
		grpcServer.GracefulStop()
	}()

	log.Printf("Zuora discovery server listening on %s (store=%s)", addr, cfg.StoreConfig().Kind)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
