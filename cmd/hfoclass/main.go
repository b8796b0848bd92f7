package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hfoclass/internal/cfg"
	"hfoclass/internal/metrics"
	"hfoclass/internal/pipeline"
	"hfoclass/internal/report"
	"hfoclass/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Optional .env file for local runs; env vars win over config values.
	_ = godotenv.Load()

	var (
		modelPath    = flag.String("model", "", "Path to model JSON file (overrides config)")
		eventsPath   = flag.String("events", "", "Path to detected events CSV/JSON file")
		channelsPath = flag.String("channels", "", "Path to channel info JSON file")
		featuresPath = flag.String("features", "", "Path to feature matrix CSV/JSON file")
		outputDir    = flag.String("output", "", "Output directory for results")
		resultsFile  = flag.String("results", "", "Results CSV filename")
		dataPath     = flag.String("data", "", "BoltDB data directory (empty disables run history)")
		metricsPort  = flag.Int("metrics-port", 0, "Prometheus metrics port (0 disables)")
		logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	applyFlags(&config, *modelPath, *eventsPath, *channelsPath, *featuresPath,
		*outputDir, *resultsFile, *dataPath, *metricsPort, *logLevel)

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handleSignals(cancel)

	m := metrics.New()
	if config.MetricsPort > 0 {
		startMetricsServer(ctx, config.MetricsPort)
	}

	store := setupStorage(config)
	if store != nil {
		defer store.Close()
	}

	runner := pipeline.NewRunner(config, metrics.NewWrapper(m), store)
	summary, err := runner.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("classification failed")
	}

	printSummary(summary)
}

func applyFlags(config *cfg.Settings, modelPath, eventsPath, channelsPath, featuresPath,
	outputDir, resultsFile, dataPath string, metricsPort int, logLevel string) {
	if modelPath != "" {
		config.ModelPath = modelPath
	}
	if eventsPath != "" {
		config.EventsPath = eventsPath
	}
	if channelsPath != "" {
		config.ChannelInfoPath = channelsPath
	}
	if featuresPath != "" {
		config.FeaturesPath = featuresPath
	}
	if outputDir != "" {
		config.OutputDir = outputDir
	}
	if resultsFile != "" {
		config.ResultsFile = resultsFile
	}
	if dataPath != "" {
		config.DataPath = dataPath
	}
	if metricsPort != 0 {
		config.MetricsPort = metricsPort
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()
}

// setupStorage opens the run-history store when a data path is configured.
// A storage failure downgrades to a run without persistence.
func setupStorage(config cfg.Settings) *storage.Store {
	if config.DataPath == "" {
		return nil
	}
	store, err := storage.New(config.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, port int) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func printSummary(s report.RunSummary) {
	fmt.Println("=== Classification Summary ===")
	fmt.Printf("Events:             %d\n", s.Events)
	fmt.Printf("HFOs:               %d\n", s.HFOCount)
	fmt.Printf("Artifacts:          %d\n", s.ArtifactCount)
	fmt.Printf("Undefined outcomes: %d\n", s.NaNEvents)
	fmt.Printf("Bad-channel events: %d\n", s.BadChanEvents)
	fmt.Printf("Threshold:          %.2f\n", s.Threshold)
	if s.SamplingRate > 0 {
		fmt.Printf("Sampling rate:      %.0f Hz\n", s.SamplingRate)
	}
	fmt.Printf("Duration:           %s\n", s.Duration)
	fmt.Println("==============================")
}
