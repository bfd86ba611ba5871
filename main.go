package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-researcher/config"
	"stock-researcher/internal/api"
	"stock-researcher/internal/app"
	"stock-researcher/observability"

	"github.com/joho/godotenv"
)

func main() {
	query := flag.String("query", "", "run a single research query, print the result, and exit")
	production := flag.Bool("production", false, "use JSON log output")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		// No .env file is fine; real deployments set the environment directly.
	}

	observability.InitLogger(*production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		observability.Fatal("failed to initialize application", "error", err)
	}
	defer application.Close()

	if *query != "" {
		runOnce(ctx, application, *query)
		return
	}

	serve(application, cfg)
}

// runOnce handles the -query flag: one research run, printed to stdout.
func runOnce(ctx context.Context, application *app.App, query string) {
	result := application.Research(ctx, query)

	fmt.Printf("Ticker: %s\n", result.Ticker)
	if result.CompanyName != "" {
		fmt.Printf("Company: %s\n", result.CompanyName)
	}
	fmt.Printf("Recommendation: %s\n", result.Recommendation)
	fmt.Printf("Sentiment score: %.2f\n", result.SentimentScore)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}
	if result.Report != "" {
		fmt.Printf("\n%s\n", result.Report)
	}
}

func serve(application *app.App, cfg *config.Config) {
	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("HTTP server failed", "error", err)
		}
	case sig := <-stop:
		observability.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			observability.Error("graceful shutdown failed", "error", err)
		}
	}
}
