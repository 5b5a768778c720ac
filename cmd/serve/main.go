package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/server"
)

// Serves predictions from a weight file over HTTP. SIGHUP reloads the file.
func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	weights := flag.String("weights", "", "Weight file written by cmd/train (required)")
	divisor := flag.Float64("input-divisor", 0, "Every request value is divided by this value; must match training (required)")
	maxBody := flag.Int64("max-body", server.DefaultMaxBodyBytes, "Maximum request body size in bytes")
	flag.Parse()

	if *weights == "" {
		flag.Usage()
		os.Exit(2)
	}
	norm := dataset.Normalizer{Divisor: *divisor}
	if err := norm.Validate(); err != nil {
		log.Fatalf("-input-divisor: %v", err)
	}

	m, err := net.Load(*weights)
	if err != nil {
		log.Fatalf("Failed to load weights: %v", err)
	}
	srv, err := server.New(server.Config{Normalizer: norm, MaxBodyBytes: *maxBody}, m)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	log.Printf("Loaded %s: %d inputs, hidden %v, %d outputs", *weights, m.InputSize(), m.HiddenSizes(), m.OutputSize())

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			next, err := net.Load(*weights)
			if err != nil {
				log.Printf("Reload failed, keeping current model: %v", err)
				continue
			}
			if _, err := srv.Swap(next); err != nil {
				log.Printf("Reload rejected: %v", err)
				continue
			}
			log.Printf("Reloaded %s", *weights)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Listening on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-idle
	log.Println("Server stopped")
}
