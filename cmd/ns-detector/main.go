package main

import (
	"CANSpectra/internal/api"
	"CANSpectra/internal/config"
	"CANSpectra/internal/engine/manager"
	"CANSpectra/internal/logging"
	"CANSpectra/internal/metrics"
	"CANSpectra/internal/model"
	"CANSpectra/internal/probe"
	"CANSpectra/pkg/pcap"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML or TOML configuration file.")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logFile := logging.Setup(cfg.Logging)
	defer logFile.Close()
	log.Printf("Starting ns-detector at %s", time.Now().Format("2006-01-02 15:04:05"))

	// 2. Build the pipeline
	mtr := metrics.New()
	mgr, err := manager.NewManager(cfg, mtr)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	src, err := openSource(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s source: %v", cfg.Detector.Source, err)
	}

	mgr.Start()

	// 3. Serve the API and health endpoints
	var httpServer *http.Server
	if cfg.API.ListenAddr != "" {
		httpServer = &http.Server{
			Addr:    cfg.API.ListenAddr,
			Handler: api.NewRouter(mgr, mgr.Classifier(), mtr),
		}
		go func() {
			log.Printf("API server starting on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Could not listen on %s: %v", httpServer.Addr, err)
			}
		}()
	}

	grpcServer, health := api.NewGRPCServer()
	if cfg.API.GRPCListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.API.GRPCListenAddr)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCListenAddr, err)
		}
		go func() {
			log.Printf("gRPC health server starting on %s", cfg.API.GRPCListenAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Printf("gRPC server stopped: %v", err)
			}
		}()
	}

	// 4. Feed the manager until the stream ends, a signal arrives or the
	// pipeline halts.
	ctx, cancel := context.WithCancel(context.Background())
	srcDone := make(chan error, 1)
	go func() { srcDone <- src.ReadFrames(ctx, mgr.InputChannel()) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sourceFinished := false
	select {
	case err := <-srcDone:
		sourceFinished = true
		if err != nil {
			log.Printf("Source stopped with error: %v", err)
		} else {
			log.Println("Source finished.")
		}
	case <-sigChan:
		log.Println("Shutdown signal received, stopping detector...")
	case <-mgr.Halted():
		log.Println("Pipeline halted on a timing violation, stopping detector...")
		api.MarkNotServing(health)
	}

	cancel()
	if !sourceFinished {
		<-srcDone
	}
	if err := src.Close(); err != nil {
		log.Printf("Error closing source: %v", err)
	}
	mgr.Stop()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server forced to shutdown: %v", err)
		}
	}
	grpcServer.GracefulStop()

	s := mgr.Stats()
	log.Printf("Processed %d frames: %d valid, %d invalid, %d malformed, %d timing violations.",
		s.Frames, s.Valid, s.Invalid, s.Malformed, s.TimingViolations)
	log.Printf("Stopped ns-detector at %s", time.Now().Format("2006-01-02 15:04:05"))
}

func openSource(cfg *config.Config) (model.Source, error) {
	switch cfg.Detector.Source {
	case "tcp":
		return probe.NewListener(cfg.Detector.ListenAddr)
	case "nats":
		return probe.NewSubscriber(cfg.Probe)
	case "pcap":
		return pcap.NewReader(cfg.Detector.PcapPath)
	}
	return nil, fmt.Errorf("unknown source '%s'", cfg.Detector.Source)
}
