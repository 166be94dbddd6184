package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-fletcher/internal/config"
	"github.com/23skdu/longbow-fletcher/internal/engine"
	"github.com/23skdu/longbow-fletcher/internal/flightsink"
	"github.com/23skdu/longbow-fletcher/internal/logger"
	"github.com/23skdu/longbow-fletcher/internal/metrics"
	"github.com/23skdu/longbow-fletcher/internal/translate"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (flags override it)")
	inputPath  = flag.String("input", "", "Input file, one tokenized record per line")
	outputPath = flag.String("output", "", "Output file, one line per hypothesis")

	modelPath      = flag.String("model", "", "Path to the translation model")
	device         = flag.String("device", "cpu", "Compute device: cpu, cuda or metal")
	deviceIndex    = flag.Int("device-index", 0, "Device index")
	workers        = flag.Int("workers", 1, "Number of pool workers (one engine each)")
	computeThreads = flag.Int("compute-threads", 4, "Engine-internal numeric threads")
	maxBatchSize   = flag.Int("max-batch-size", 32, "Records per submitted batch")

	beamSize          = flag.Int("beam-size", 4, "Beam search width (1 = greedy)")
	numHypotheses     = flag.Int("num-hypotheses", 1, "Hypotheses per input record")
	lengthPenalty     = flag.Float64("length-penalty", 0.6, "Length normalization exponent")
	maxDecodingLength = flag.Int("max-decoding-length", 250, "Maximum output length")
	minDecodingLength = flag.Int("min-decoding-length", 1, "Minimum output length")
	useVMap           = flag.Bool("vmap", false, "Restrict output vocabulary via the model's map")
	withScores        = flag.Bool("with-scores", false, "Prefix output lines with the hypothesis score")

	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat   = flag.String("log-format", "console", "Log format: console or json")
	metricsAddr = flag.String("metrics", ":9090", "Address serving /metrics and /healthz")
	flightAddr  = flag.String("flight", "", "Arrow Flight address for result export (empty disables)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.Log.With("fletcher")

	if *inputPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --input and --output are required")
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	engine.Init(cfg.ComputeThreads)

	go serveMetrics(cfg.MetricsAddr, log)

	pool, err := translate.NewPool(engine.Load, cfg.ModelPath, cfg.Device, cfg.DeviceIndex, cfg.Workers)
	if err != nil {
		log.Error("pool construction failed", "error", err)
		os.Exit(1)
	}
	defer pool.Shutdown()

	var sinks []translate.ResultSink
	if cfg.FlightAddr != "" {
		sink := flightsink.New(cfg.FlightAddr)
		if err := sink.Connect(context.Background()); err != nil {
			log.Error("flight sink connect failed", "addr", cfg.FlightAddr, "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		sinks = append(sinks, sink)
		log.Info("flight export enabled", "addr", cfg.FlightAddr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("translating file", "input", *inputPath, "output", *outputPath,
		"max_batch_size", cfg.MaxBatchSize, "workers", cfg.Workers)

	done := make(chan error, 1)
	go func() {
		start := time.Now()
		err := pool.TranslateFile(*inputPath, *outputPath, cfg.MaxBatchSize, cfg.Options(), sinks...)
		if err == nil {
			log.Info("translation complete", "records", metrics.TotalRecords(),
				"duration", time.Since(start))
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error("translation failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		log.Warn("interrupt received, draining in-flight batches", "signal", sig.String())
		pool.Shutdown()
		if err := <-done; err != nil {
			log.Error("translation aborted", "error", err)
		}
		os.Exit(130)
	}
}

// loadConfig resolves the effective configuration: defaults, then the YAML
// file if given, then any flag explicitly set on the command line.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.ModelPath = *modelPath
		case "device":
			cfg.Device = *device
		case "device-index":
			cfg.DeviceIndex = *deviceIndex
		case "workers":
			cfg.Workers = *workers
		case "compute-threads":
			cfg.ComputeThreads = *computeThreads
		case "max-batch-size":
			cfg.MaxBatchSize = *maxBatchSize
		case "beam-size":
			cfg.BeamSize = *beamSize
		case "num-hypotheses":
			cfg.NumHypotheses = *numHypotheses
		case "length-penalty":
			cfg.LengthPenalty = *lengthPenalty
		case "max-decoding-length":
			cfg.MaxDecodingLength = *maxDecodingLength
		case "min-decoding-length":
			cfg.MinDecodingLength = *minDecodingLength
		case "vmap":
			cfg.UseVMap = *useVMap
		case "with-scores":
			cfg.WithScores = *withScores
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "flight":
			cfg.FlightAddr = *flightAddr
		}
	})
	return cfg, nil
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"records": metrics.TotalRecords(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Info("metrics serving", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Warn("metrics server stopped", "error", err)
	}
}
