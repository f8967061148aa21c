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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"m6apred/internal/cfg"
	"m6apred/internal/features"
	"m6apred/internal/metrics"
	"m6apred/internal/ml"
	"m6apred/internal/sites"
	"m6apred/internal/storage"
)

func main() {
	in := flag.String("in", "", "input site table (TSV)")
	out := flag.String("out", "predictions.tsv", "output table (TSV)")
	serve := flag.Bool("serve", false, "run the prediction HTTP server instead of a batch run")
	flag.Parse()

	// Optional .env for local runs; real deployments use the environment.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	forest, err := ml.LoadForest(c.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("model load failed")
	}

	schema, err := features.NewSchema(forest.KmerLen())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid model k-mer length")
	}

	m := metrics.New()
	mw := metrics.NewWrapper(m)
	if created := forest.Info().Created; !created.IsZero() {
		mw.ModelAgeSet(time.Since(created).Seconds())
	}

	engine, err := ml.NewEngine(forest, schema, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("engine initialization failed")
	}

	if *serve {
		runServer(c, engine, forest.Info())
		return
	}

	if *in == "" {
		log.Fatal().Msg("batch mode requires -in; use -serve for the HTTP server")
	}
	runBatch(c, engine, *in, *out)
}

func runBatch(c cfg.Settings, engine *ml.Engine, in, out string) {
	batch, err := sites.ReadTSV(in)
	if err != nil {
		log.Fatal().Err(err).Str("input", in).Msg("failed to load site table")
	}

	preds, err := engine.PredictBatch(batch, c.PositiveThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("batch prediction failed")
	}

	if err := sites.WriteTSV(out, preds); err != nil {
		log.Fatal().Err(err).Str("output", out).Msg("failed to write prediction table")
	}

	positives := 0
	for _, p := range preds {
		if p.Status == ml.StatusPositive {
			positives++
		}
	}

	if c.DataPath != "" {
		persistRun(c.DataPath, preds)
	}

	log.Info().
		Int("rows", len(preds)).
		Int("positive", positives).
		Float64("threshold", c.PositiveThreshold).
		Str("output", out).
		Msg("batch prediction complete")
}

func persistRun(dataPath string, preds []ml.Prediction) {
	store, err := storage.New(dataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return
	}
	defer store.Close()

	runID := uuid.NewString()
	if err := store.StoreRun(runID, preds); err != nil {
		log.Warn().Err(err).Msg("failed to persist prediction run")
		return
	}
	log.Info().Str("run_id", runID).Msg("prediction run persisted")
}

func runServer(c cfg.Settings, engine *ml.Engine, info ml.ModelInfo) {
	if c.ServerPort == 0 {
		log.Fatal().Msg("serve mode requires a server port (SERVER_PORT or server.port)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.MetricsPort != 0 {
		startMetricsServer(ctx, c.MetricsPort)
	}

	ms := ml.NewModelServer(engine, info, c.PositiveThreshold, c.ServerPort)
	go func() {
		if err := ms.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("model server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := ms.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown model server")
	}
}

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

func waitForShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}
}
