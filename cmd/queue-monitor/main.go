// Package main provides the CLI entry point for queue-monitor. It consumes one queue,
// raises sliding-window alerts and appends every decoded message to a CSV file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"telemetry-streams/internal/codec"
	"telemetry-streams/internal/config"
	"telemetry-streams/internal/consumer"
	"telemetry-streams/internal/database"
	"telemetry-streams/internal/evaluator"
	"telemetry-streams/internal/notifier"
	"telemetry-streams/internal/processor"
	"telemetry-streams/internal/sink"
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

	cfg := config.MonitorConfig{}
	var logOpts shared.LogOptions
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.Queue, "queue", shared.GetEnvOrDefault("QUEUE", "01-smoker"), "Queue to consume")
	flag.StringVar(&cfg.GroupID, "group-id", shared.GetEnvOrDefault("GROUP_ID", ""), "Kafka consumer group ID (default queue-monitor-<queue>)")
	flag.StringVar(&cfg.Encoding, "encoding", shared.GetEnvOrDefault("ENCODING", ""), "Message encoding: text, binary or record (default depends on -queue)")
	flag.StringVar(&cfg.OutputFile, "output", shared.GetEnvOrDefault("OUTPUT_FILE", ""), "CSV file to append to (default Data_<queue>.csv)")
	flag.StringVar(&cfg.RulesFile, "rules", shared.GetEnvOrDefault("RULES_FILE", ""), "TOML alert rules file (default built-in rules)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", ""), "Redis address for metrics and alert pub/sub (empty disables)")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", shared.GetEnvOrDefault("POSTGRES_DSN", ""), "PostgreSQL connection string for alert history (empty disables)")
	flag.DurationVar(&cfg.MetricsInterval, "metrics-interval", 0, "How often metrics are written to Redis (default 30s)")
	flag.DurationVar(&cfg.CommitTimeout, "commit-timeout", processor.DefaultInFlightTimeout, "Time allowed to finish the in-flight message on shutdown")
	flag.StringVar(&logOpts.Format, "log-format", shared.GetEnvOrDefault("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&logOpts.Level, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&logOpts.File, "log-file", shared.GetEnvOrDefault("LOG_FILE", ""), "Also write logs to this rotated file")
	flag.Parse()

	if cfg.GroupID == "" {
		cfg.GroupID = config.DefaultGroupID(cfg.Queue)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = config.DefaultEncoding(cfg.Queue)
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = config.DefaultOutputFile(cfg.Queue)
	}

	logCloser, err := shared.SetupLogger(logOpts)
	if err != nil {
		slog.Error("Invalid logging configuration", "error", err)
		return 1
	}
	defer logCloser.Close()

	slog.Info("Starting queue-monitor",
		"kafka_brokers", cfg.KafkaBrokers,
		"queue", cfg.Queue,
		"group_id", cfg.GroupID,
		"encoding", cfg.Encoding,
		"output", cfg.OutputFile,
		"rules", cfg.RulesFile,
		"redis_addr", cfg.RedisAddr,
		"postgres_dsn", shared.MaskDSN(cfg.PostgresDSN),
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load alert rules", "error", err)
		return 1
	}
	eval, err := evaluator.New(rules)
	if err != nil {
		slog.Error("Invalid alert rules", "error", err)
		return 1
	}
	if rule, ok := eval.Rule(cfg.Queue); ok {
		slog.Info("Monitoring queue",
			"queue", cfg.Queue,
			"capacity", rule.Capacity,
			"threshold", rule.Threshold,
			"direction", rule.Direction,
		)
	} else {
		slog.Info("No alert rule for queue, recording only", "queue", cfg.Queue)
	}

	decoder, err := codec.NewDecoder(cfg.Encoding)
	if err != nil {
		slog.Error("Invalid encoding", "error", err)
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

	if err := kafkautil.CheckConnection(ctx, kafkautil.ParseBrokers(cfg.KafkaBrokers)); err != nil {
		slog.Error("Failed to connect to Kafka", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		return 1
	}

	out, err := sink.Open(cfg.OutputFile, decoder.Columns())
	if err != nil {
		slog.Error("Failed to open output file", "error", err)
		return 1
	}
	defer out.Close()

	notifiers := notifier.Multi{notifier.LogNotifier{}}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		slog.Info("Connecting to Redis", "addr", cfg.RedisAddr)
		redisClient, err = shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			slog.Info("Tip: Start Redis with 'docker compose up -d redis'")
			return 1
		}
		defer redisClient.Close()
		notifiers = append(notifiers, notifier.NewRedisNotifier(redisClient))
	}

	if cfg.PostgresDSN != "" {
		slog.Info("Connecting to PostgreSQL database")
		store, err := database.NewAlertStore(cfg.PostgresDSN)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			slog.Info("Tip: Start Postgres with 'docker compose up -d postgres' or ensure Postgres is running")
			return 1
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("Failed to prepare alert table", "error", err)
			return 1
		}
		notifiers = append(notifiers, store)
	}

	collector := metrics.NewCollector("queue-monitor-"+cfg.Queue, redisClient)
	collector.Start(ctx, cfg.MetricsInterval)
	defer collector.Stop()

	kafkaConsumer, err := consumer.NewConsumer(cfg.KafkaBrokers, cfg.Queue, cfg.GroupID)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		return 1
	}
	defer kafkaConsumer.Close()

	monitor := processor.NewMonitorWithMetrics(cfg.Queue, kafkaConsumer, decoder, eval, out, notifiers, collector)
	monitor.SetInFlightTimeout(cfg.CommitTimeout)

	if err := monitor.Run(ctx); err != nil {
		slog.Error("Queue processing failed", "queue", cfg.Queue, "error", err)
		return 1
	}

	slog.Info("queue-monitor stopped", "queue", cfg.Queue, "rows_written", out.Rows())
	return 0
}
