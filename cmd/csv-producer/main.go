// Package main provides the CLI entry point for csv-producer. It reads a CSV feed and
// publishes each row to its queues, pausing between rows.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"telemetry-streams/internal/config"
	"telemetry-streams/internal/feed"
	"telemetry-streams/internal/processor"
	"telemetry-streams/internal/producer"
	kafkautil "telemetry-streams/pkg/kafka"
	"telemetry-streams/pkg/metrics"
	"telemetry-streams/pkg/shared"

	"github.com/redis/go-redis/v9"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := shared.LoadDotEnv(".env"); err != nil {
		slog.Error("Failed to load .env", "error", err)
		return 1
	}

	cfg := config.ProducerConfig{}
	var logOpts shared.LogOptions
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.Feed, "feed", shared.GetEnvOrDefault("FEED", config.FeedSmoker), "Feed to publish: smoker, station or subway")
	flag.StringVar(&cfg.InputFile, "input", shared.GetEnvOrDefault("INPUT_FILE", ""), "Input CSV file (default depends on -feed)")
	flag.DurationVar(&cfg.Interval, "interval", 0, "Pause between rows, 0 disables pacing (default 30s for smoker, 60s otherwise)")
	flag.StringVar(&cfg.StationQueues, "station-queues", shared.GetEnvOrDefault("STATION_QUEUES", "Station-447,Station-463"), "Queues for the station count columns, in column order")
	flag.StringVar(&cfg.Lines, "lines", shared.GetEnvOrDefault("SUBWAY_LINES", "7,Q,5"), "Subway lines routed to Line-<line>_queue")
	flag.BoolVar(&cfg.Mock, "mock", false, "Use mock producer (no Kafka required, logs messages instead)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", ""), "Redis address for metrics (empty disables)")
	flag.DurationVar(&cfg.MetricsInterval, "metrics-interval", 0, "How often metrics are written to Redis (default 30s)")
	flag.StringVar(&logOpts.Format, "log-format", shared.GetEnvOrDefault("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&logOpts.Level, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&logOpts.File, "log-file", shared.GetEnvOrDefault("LOG_FILE", ""), "Also write logs to this rotated file")
	flag.Parse()

	if !flagSet("interval") {
		cfg.Interval = config.DefaultInterval(cfg.Feed)
	}
	if cfg.InputFile == "" {
		cfg.InputFile = config.DefaultInputFile(cfg.Feed)
	}

	logCloser, err := shared.SetupLogger(logOpts)
	if err != nil {
		slog.Error("Invalid logging configuration", "error", err)
		return 1
	}
	defer logCloser.Close()

	slog.Info("Starting csv-producer",
		"feed", cfg.Feed,
		"input", cfg.InputFile,
		"interval", cfg.Interval,
		"kafka_brokers", cfg.KafkaBrokers,
		"mock", cfg.Mock,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	source, err := openFeed(cfg)
	if err != nil {
		slog.Error("Failed to open feed", "input", cfg.InputFile, "error", err)
		return 1
	}
	defer source.Close()

	var publisher producer.Publisher
	if cfg.Mock {
		publisher = producer.NewMock()
	} else {
		if err := kafkautil.CheckConnection(ctx, kafkautil.ParseBrokers(cfg.KafkaBrokers)); err != nil {
			slog.Error("Failed to connect to Kafka", "error", err)
			slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
			return 1
		}
		publisher, err = producer.New(cfg.KafkaBrokers, source.Queues())
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			return 1
		}
	}
	defer publisher.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			return 1
		}
		defer redisClient.Close()
	}
	collector := metrics.NewCollector("csv-producer-"+cfg.Feed, redisClient)
	collector.Start(ctx, cfg.MetricsInterval)
	defer collector.Stop()

	if err := processor.NewFeeder(source, publisher, cfg.Interval, collector).Run(ctx); err != nil {
		slog.Error("Feed failed", "error", err)
		return 1
	}

	slog.Info("csv-producer stopped", "interrupted", ctx.Err() != nil)
	return 0
}

func openFeed(cfg config.ProducerConfig) (feed.Feed, error) {
	switch cfg.Feed {
	case config.FeedStation:
		return feed.OpenStation(cfg.InputFile, config.SplitList(cfg.StationQueues))
	case config.FeedSubway:
		return feed.OpenSubway(cfg.InputFile, config.SplitList(cfg.Lines))
	default:
		return feed.OpenSmoker(cfg.InputFile, feed.DefaultSmokerChannels)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
