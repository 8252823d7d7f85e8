package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ratio1/poststats_go/internal/devseed"
	"github.com/Ratio1/poststats_go/pkg/poststats"
	"github.com/Ratio1/poststats_go/pkg/remote/mock"
)

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	seed := flag.String("seed", "", "path to YAML or JSON seed for the counters")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: poststats.ParseLogLevel(*logLevel)}))

	svc := mock.New()
	if *seed != "" {
		entries, err := devseed.LoadStatsSeed(*seed)
		if err != nil {
			logger.Error("load seed", "path", *seed, "error", err)
			os.Exit(1)
		}
		svc.Seed(entries)
		logger.Info("seed applied", "path", *seed, "items", len(entries))
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		logger.Error("parse fail flag", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	server := &http.Server{
		Addr:              *addr,
		Handler:           newHandler(svc, handlerConfig{latency: *latency, fail: failCfg}, newMetrics(registry), registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	logger.Info("stats-sandbox listening", "addr", *addr, "latency", *latency, "fail_rate", failCfg.rate)
	fmt.Println()
	fmt.Println("export POSTSTATS_RUNTIME_MODE=http")
	fmt.Printf("export POSTSTATS_API_URL=http://%s/\n", host)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
