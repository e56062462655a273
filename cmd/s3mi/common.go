package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chanzuckerberg/s3mi/internal/config"
	"github.com/chanzuckerberg/s3mi/internal/creds"
	"github.com/chanzuckerberg/s3mi/internal/engine"
	"github.com/chanzuckerberg/s3mi/internal/logging"
	"github.com/chanzuckerberg/s3mi/internal/metrics"
	"github.com/chanzuckerberg/s3mi/internal/source"
)

func printVersion() {
	fmt.Fprintf(os.Stderr, "s3mi %s (%s)\n", engine.Version, engine.GitSHA)
}

// transferFlags are the options shared by cat and cp.
type transferFlags struct {
	configPath    string
	segmentSize   string
	concurrency   int
	maxBuffered   int
	fetchTimeout  time.Duration
	refreshMargin time.Duration
	quiet         bool
	metricsAddr   string
	logFormat     string
	logLevel      string
}

func addTransferFlags(fs *flag.FlagSet, tf *transferFlags) {
	fs.StringVar(&tf.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&tf.segmentSize, "segment-size", "", "Bytes per range request, e.g. 384MiB")
	fs.IntVar(&tf.concurrency, "concurrency", 0, "Maximum in-flight fetches (default: auto by host RAM)")
	fs.IntVar(&tf.maxBuffered, "max-buffered", 0, "Maximum buffered segments (default: auto by host RAM)")
	fs.DurationVar(&tf.fetchTimeout, "timeout", 0, "Per-fetch inactivity timeout (default 2m)")
	fs.DurationVar(&tf.refreshMargin, "refresh-margin", 0, "Refresh credentials when less than this remains (default 5m)")
	fs.BoolVar(&tf.quiet, "quiet", false, "Suppress informational output")
	fs.StringVar(&tf.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&tf.logFormat, "log-format", "", "Log format: text or json")
	fs.StringVar(&tf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig layers defaults, the config file, environment, and flags.
func loadConfig(tf transferFlags) (config.Config, error) {
	cfg := config.Default()

	if tf.configPath != "" {
		fileCfg, err := config.LoadFromFile(tf.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	override := config.Config{
		Concurrency:   tf.concurrency,
		MaxBuffered:   tf.maxBuffered,
		FetchTimeout:  tf.fetchTimeout,
		RefreshMargin: tf.refreshMargin,
		Quiet:         tf.quiet,
		MetricsAddr:   tf.metricsAddr,
		LogFormat:     tf.logFormat,
		LogLevel:      tf.logLevel,
	}
	if tf.segmentSize != "" {
		size, err := config.ParseBytes(tf.segmentSize)
		if err != nil {
			return config.Config{}, fmt.Errorf("parse -segment-size: %w", err)
		}
		override.SegmentSize = size
	}
	cfg = cfg.Merge(override)

	cfg.AutoTune()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setup initializes logging and metrics and installs the interrupt
// handler. It returns the root context for the transfer.
func setup(cfg config.Config) (context.Context, context.CancelFunc) {
	level := cfg.LogLevel
	if cfg.Quiet {
		level = "error"
	}
	logging.Setup(logging.Config{Format: cfg.LogFormat, Level: level})

	if cfg.MetricsAddr != "" {
		metrics.Init("s3mi")
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logging.Component("metrics").Error("metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		logging.Component("main").Warn("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	return ctx, cancel
}

// transfer opens the source, looks up the object size, and runs the
// engine against the sink. Returns an exit code.
func transfer(ctx context.Context, cfg config.Config, rawURL string, sink io.Writer) int {
	log := logging.Component("main")

	obj, loc, err := source.Open(ctx, rawURL)
	if err != nil {
		log.Error("cannot open source", "url", rawURL, "error", err)
		return ExitInvalidArgs
	}
	defer obj.Close()

	cache := creds.NewCache(creds.AWSProvider(), cfg.RefreshMargin)
	snap := cache.Current(ctx)

	size, err := obj.Size(ctx, snap)
	if err != nil {
		log.Error("cannot determine object size", "url", rawURL, "error", err)
		return ExitSourceError
	}

	eng, err := engine.New(obj, cache, engine.Config{
		SegmentSize:  cfg.SegmentSize,
		Concurrency:  cfg.Concurrency,
		MaxBuffered:  cfg.MaxBuffered,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		log.Error("cannot create engine", "error", err)
		return ExitInvalidArgs
	}

	if err := eng.Run(ctx, engine.Job{Bucket: loc.Bucket, Key: loc.Key, Size: size}, sink); err != nil {
		log.Error("transfer failed", "url", rawURL, "error", err)
		return ExitTransferFailed
	}

	return ExitSuccess
}
