// Package main provides the CLI entry point for stream-status. It prints a JSON report
// of producer and monitor metrics and of the latest stored alerts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"telemetry-streams/internal/config"
	"telemetry-streams/internal/database"
	"telemetry-streams/internal/status"
	"telemetry-streams/pkg/metrics"
	"telemetry-streams/pkg/shared"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := shared.LoadDotEnv(".env"); err != nil {
		slog.Error("Failed to load .env", "error", err)
		return 1
	}

	var (
		redisAddr   string
		postgresDSN string
		queues      string
		limit       int
		timeout     time.Duration
		logOpts     shared.LogOptions
	)
	flag.StringVar(&redisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&postgresDSN, "postgres-dsn", shared.GetEnvOrDefault("POSTGRES_DSN", ""), "PostgreSQL connection string for alert history (empty skips alerts)")
	flag.StringVar(&queues, "queues", shared.GetEnvOrDefault("QUEUES", "01-smoker,02-food-A,03-food-B,Station-447,Station-463,Line-7_queue,Line-Q_queue,Line-5_queue"), "Queues to report on")
	flag.IntVar(&limit, "alerts", 5, "Alerts to show per queue")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Overall time allowed for the report")
	flag.StringVar(&logOpts.Level, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	flag.Parse()

	// stdout carries the report
	logOpts.Output = os.Stderr
	logCloser, err := shared.SetupLogger(logOpts)
	if err != nil {
		slog.Error("Invalid logging configuration", "error", err)
		return 1
	}
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	redisClient, err := shared.ConnectRedis(ctx, redisAddr)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		return 1
	}
	defer redisClient.Close()

	var history status.AlertHistory
	if postgresDSN != "" {
		store, err := database.NewAlertStore(postgresDSN)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return 1
		}
		defer store.Close()
		history = store
	}

	queueList := config.SplitList(queues)
	expected := make([]string, 0, len(queueList))
	for _, q := range queueList {
		expected = append(expected, "queue-monitor-"+q)
	}

	report, err := status.NewBuilder(metrics.NewReader(redisClient), history).Build(ctx, expected, queueList, limit)
	if err != nil {
		slog.Error("Failed to build report", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.Error("Failed to encode report", "error", err)
		return 1
	}
	return 0
}
