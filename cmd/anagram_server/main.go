package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/go-anagram-search/api"
	"github.com/gcbaptista/go-anagram-search/config"
	"github.com/gcbaptista/go-anagram-search/internal/corpus"
	"github.com/gcbaptista/go-anagram-search/internal/jobs"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/internal/metrics"
	"github.com/gcbaptista/go-anagram-search/internal/search"
	"github.com/gcbaptista/go-anagram-search/internal/snapshot"
	"github.com/gcbaptista/go-anagram-search/internal/source"
	"github.com/gcbaptista/go-anagram-search/model"
)

func main() {
	var (
		help        = flag.Bool("help", false, "Show help message")
		version     = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a TOML or YAML config file")
		port        = flag.String("port", "", "Port to run the server on (overrides config)")
		corpusURL   = flag.String("source", "", "Word list source: http(s)://, file://, s3:// or minio:// (overrides config)")
		logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
		writeConfig = flag.String("write-config", "", "Write the effective config as TOML to this path and exit")
	)

	flag.Parse()

	if *help {
		fmt.Printf("Go Anagram Search - finds every word of a word list that is an anagram of the query\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                      # Serve the default English word list on port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000                          # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --source file:///usr/share/dict/words # Use a local word list\n", os.Args[0])
		fmt.Printf("  %s --config anagram.toml                # Load settings from a file\n", os.Args[0])
		return
	}

	if *version {
		fmt.Printf("Go Anagram Search v1.0.0\n")
		return
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	if *port != "" {
		settings.Server.Port = *port
	}
	if *corpusURL != "" {
		settings.Corpus.Source = *corpusURL
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	if errs := settings.Validate(); len(errs) > 0 {
		log.Fatal("Invalid config", "errors", strings.Join(errs, "; "))
	}

	if *writeConfig != "" {
		if err := config.Save(settings, *writeConfig); err != nil {
			log.Fatal("Failed to write config", "err", err)
		}
		fmt.Printf("Config written to %s\n", *writeConfig)
		return
	}

	logger.Setup(settings.Log.Level, settings.Log.Format)
	if err := run(settings); err != nil {
		log.Fatal("Server stopped with error", "err", err)
	}
}

func run(settings *config.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverLog := logger.New("server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry, settings.Server.MetricsNamespace)

	src, err := source.New(ctx, settings.Corpus)
	if err != nil {
		return fmt.Errorf("failed to set up corpus source: %w", err)
	}

	snapshots, closeSnapshots, err := snapshot.Open(settings.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer closeSnapshots()

	cache := corpus.New(src, corpus.Options{
		FetchTimeout: settings.Corpus.FetchTimeout,
		Snapshots:    snapshots,
		Metrics:      recorder,
	})

	searcher, err := search.NewService(cache, recorder)
	if err != nil {
		return err
	}

	jobManager := jobs.NewManager(settings.Server.JobWorkers)
	jobManager.Start()
	defer jobManager.Stop()

	if settings.Server.WarmCorpus {
		warmup(jobManager, cache, src.String(), serverLog)
	}

	if !strings.EqualFold(settings.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(settings.Server, api.Dependencies{
		Searcher: searcher,
		Corpus:   cache,
		Jobs:     jobManager,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:   serverLog,
	})

	server := &http.Server{
		Addr:              ":" + settings.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serverLog.Info("Starting server", "port", settings.Server.Port, "source", src, "snapshot", settings.Snapshot.Kind)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	serverLog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// warmup loads the corpus in the background so the first search does not pay for the fetch.
func warmup(jobManager *jobs.Manager, cache *corpus.Cache, target string, logger *log.Logger) {
	jobID := jobManager.CreateJob(model.JobTypeCorpusWarmup, target, nil)
	err := jobManager.ExecuteJob(jobID, func(ctx context.Context, _ *model.Job) error {
		_, err := cache.GetCorpus(ctx)
		return err
	})
	if err != nil {
		logger.Warn("Failed to start corpus warmup", "err", err)
		return
	}
	logger.Info("Corpus warmup started", "job_id", jobID)
}
