// Copyright 2026 Openquill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openquill/threadlens"
	"github.com/openquill/threadlens/ai"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/queue"
	"github.com/openquill/threadlens/stream"
)

func main() {
	app := &cli.App{
		Name:  "threadlens",
		Usage: "Hybrid retrieval and summarization over social media archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Run the embedding worker pool over the queue",
				Action: workerCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single pass and exit instead of polling",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent workers (default: NumCPU/2)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Maximum items claimed per pass",
						Value: 25,
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Usage: "Embedding API calls per minute across the pool",
						Value: 60,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Processing attempts before an item is abandoned",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "claim-timeout",
						Usage: "Age after which a processing claim is considered stale",
						Value: 15 * time.Minute,
					},
				)...),
			},
			{
				Name:   "retry",
				Usage:  "Reset retryable failed items back to pending",
				Action: retryCommand,
				Flags: append(dbFlags(),
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Attempt ceiling; items at or above it stay failed",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "base-delay",
						Usage: "Exponential backoff base delay",
						Value: time.Minute,
					},
					&cli.DurationFlag{
						Name:  "max-delay",
						Usage: "Exponential backoff cap",
						Value: time.Hour,
					},
				),
			},
			{
				Name:   "reclaim",
				Usage:  "Return stale processing claims to pending",
				Action: reclaimCommand,
				Flags: append(dbFlags(),
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Claims older than this are reclaimed",
						Value: 15 * time.Minute,
					},
				),
			},
			{
				Name:   "recover",
				Usage:  "Re-queue completed items whose embedding record is missing or incomplete",
				Action: recoverCommand,
				Flags:  append(dbFlags(), aiFlags()...),
			},
			{
				Name:   "stats",
				Usage:  "Print queue and corpus counts",
				Action: statsCommand,
				Flags:  dbFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Stream a summarized answer for a query as NDJSON",
				ArgsUsage: "<query>",
				Action:    askCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:  "location",
						Usage: "Default location applied when the query names none",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum search results fed to the generator",
						Value: 10,
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Model used for metadata and intent extraction",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Model used for answer generation",
			Value: "llama3.1:8b",
		},
	}
}

func openDatabase(c *cli.Context) (*threadlens.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithClassifierModel(c.String("classifier-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return threadlens.NewDatabase(c.String("db"), threadlens.WithAIConfig(aiConfig))
}

// openDatabaseOffline opens the database for commands that only touch
// storage. The default AI configuration is used; no service is contacted.
func openDatabaseOffline(c *cli.Context) (*threadlens.Database, error) {
	return threadlens.NewDatabase(c.String("db"))
}

func workerCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	config := queue.Config{
		PoolSize:           c.Int("pool-size"),
		BatchSize:          c.Int("batch-size"),
		MaxAttempts:        c.Int("max-attempts"),
		RateLimitPerMinute: c.Int("rate-limit"),
		ClaimTimeout:       c.Duration("claim-timeout"),
	}

	pool, err := db.NewWorkerPool(config)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	if c.Bool("once") {
		stats, err := pool.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "claimed %d, completed %d, failed %d\n",
			stats.Claimed, stats.Completed, stats.Failed)
		return nil
	}

	slog.Info("worker pool starting", "db", c.String("db"), "pool_size", config.PoolSize)
	return pool.Run(ctx)
}

func retryCommand(c *cli.Context) error {
	db, err := openDatabaseOffline(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	n, err := db.QueueRepository().ResetFailed(
		context.Background(),
		c.Int("max-attempts"),
		c.Duration("base-delay"),
		c.Duration("max-delay"),
	)
	if err != nil {
		return fmt.Errorf("retry pass failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "reset %d failed items to pending\n", n)
	return nil
}

func reclaimCommand(c *cli.Context) error {
	db, err := openDatabaseOffline(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	n, err := db.QueueRepository().ReclaimStale(context.Background(), c.Duration("older-than"))
	if err != nil {
		return fmt.Errorf("reclaim pass failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "reclaimed %d stale claims\n", n)
	return nil
}

func recoverCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pool, err := db.NewWorkerPool(queue.Config{})
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	n, err := pool.RecoverIncomplete(context.Background())
	if err != nil {
		return fmt.Errorf("recovery pass failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "re-queued %d incomplete items\n", n)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabaseOffline(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs, err := db.DocumentRepository().CountDocuments(ctx)
	if err != nil {
		return err
	}
	dim, err := db.EmbeddingRepository().Dimension(ctx)
	if err != nil {
		return err
	}
	indexed, err := db.Index().Count(ctx)
	if err != nil {
		return err
	}
	counts, err := db.QueueRepository().CountByStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("documents: %d\n", docs)
	fmt.Printf("indexed: %d\n", indexed)
	fmt.Printf("vector dimension: %d\n", dim)
	for _, status := range []core.QueueStatus{
		core.StatusPending, core.StatusProcessing, core.StatusCompleted, core.StatusFailed,
	} {
		fmt.Printf("queue %s: %d\n", status, counts[status])
	}
	return nil
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	orch, err := db.NewStreamOrchestrator()
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	session := orch.NewSession(&core.SearchQuery{
		Query:           query,
		MaxResults:      c.Int("max-results"),
		DefaultLocation: c.String("location"),
	})
	return stream.WriteNDJSON(os.Stdout, session.Updates(ctx))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
