// Copyright 2025 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/distill"
	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/insight"
	"github.com/poiesic/distill/pipeline"
	"github.com/poiesic/distill/queue"
	"github.com/poiesic/distill/transcript"
)

func main() {
	app := &cli.App{
		Name:  "distill",
		Usage: "Distill long-form content into anchored knowledge points and insights",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Ingest content and start its processing pipeline",
				Subcommands: []*cli.Command{
					{
						Name:   "text",
						Usage:  "Ingest free text from a file or stdin",
						Action: ingestTextCommand,
						Flags:  append(storageFlags(), aiFlags()...),
					},
					{
						Name:   "pdf",
						Usage:  "Ingest a PDF file",
						Action: ingestPDFCommand,
						Flags: append(append(storageFlags(),
							&cli.StringFlag{
								Name:     "file",
								Aliases:  []string{"f"},
								Usage:    "Path to the PDF file",
								Required: true,
							}), aiFlags()...),
					},
					{
						Name:   "video",
						Usage:  "Ingest a video by URL",
						Action: ingestVideoCommand,
						Flags: append(append(storageFlags(),
							&cli.StringFlag{
								Name:     "url",
								Usage:    "Video URL",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "platform",
								Usage: "Video platform name",
								Value: "youtube",
							},
							&cli.StringFlag{
								Name:     "video-id",
								Usage:    "Platform video identifier",
								Required: true,
							}), aiFlags()...),
					},
				},
			},
			{
				Name:   "worker",
				Usage:  "Run queue workers processing ingestion jobs",
				Action: workerCommand,
				Flags: append(append(append(storageFlags(), aiFlags()...), asrFlags()...),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Jobs processed in parallel per queue",
						Value: 4,
					},
					&cli.DurationFlag{
						Name:  "stats-interval",
						Usage: "How often queue depths are logged",
						Value: time.Minute,
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Report a document's processing status",
				Action: statusCommand,
				Flags:  append(storageFlags(), aiFlags()...),
			},
			{
				Name:   "insight",
				Usage:  "Stream the insight of a knowledge point as SSE frames",
				Action: insightCommand,
				Flags: append(append(storageFlags(),
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Knowledge point ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate even when a stored insight exists",
					}), aiFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "owner",
			Aliases: []string{"o"},
			Usage:   "Owner of ingested documents",
			Value:   "default",
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible chat API host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "ai-token",
			Usage: "API token, \"none\" for unauthenticated local services",
			Value: "none",
		},
		&cli.StringFlag{
			Name:  "extract-model",
			Usage: "Model used for knowledge extraction",
			Value: "qwen2.5:7b",
		},
		&cli.StringFlag{
			Name:  "insight-model",
			Usage: "Model used for insight generation",
			Value: "qwen2.5:7b",
		},
		&cli.IntFlag{
			Name:  "context-window",
			Usage: "Extraction model context size in tokens",
			Value: 8192,
		},
	}
}

func asrFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "asr-url",
			Usage: "Speech recognition service base URL (enables video processing)",
		},
		&cli.StringFlag{
			Name:  "asr-key",
			Usage: "Speech recognition API key",
		},
		&cli.StringFlag{
			Name:  "asr-secret",
			Usage: "Speech recognition API secret",
		},
		&cli.StringFlag{
			Name:  "caption-langs",
			Usage: "Comma-separated caption language preference order",
			Value: "zh,zh-Hans,en",
		},
		&cli.StringFlag{
			Name:  "ffmpeg",
			Usage: "Path to the ffmpeg binary",
			Value: "ffmpeg",
		},
	}
}

func openDatabase(c *cli.Context) (*distill.Database, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithToken(c.String("ai-token")),
		ai.WithExtractModel(c.String("extract-model")),
		ai.WithInsightModel(c.String("insight-model")),
		ai.WithContextWindow(c.Int("context-window")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := distill.NewDatabase(c.String("db"), distill.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestTextCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var text string
	if c.Args().Len() > 0 {
		raw, err := os.ReadFile(c.Args().First())
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}
		text = string(raw)
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(raw)
	}

	orch, err := db.NewOrchestrator()
	if err != nil {
		return err
	}

	doc, err := orch.IngestText(ctx, c.String("owner"), text)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("document %d ingested (%s), run the worker to finish processing\n",
		doc.Id, doc.Title)
	return nil
}

func ingestPDFCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator()
	if err != nil {
		return err
	}

	doc, err := orch.IngestPDF(ctx, c.String("owner"), c.String("file"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("document %d queued for processing\n", doc.Id)
	return nil
}

func ingestVideoCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Ingestion only records the document and enqueues the job; the acquirer
	// itself lives in the worker. A placeholder satisfies the video guard.
	orch, err := db.NewOrchestrator(pipeline.WithAcquirer(noopAcquirer{}))
	if err != nil {
		return err
	}

	doc, err := orch.IngestVideo(ctx, c.String("owner"),
		c.String("url"), c.String("platform"), c.String("video-id"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("document %d queued for processing\n", doc.Id)
	return nil
}

func workerCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var pipelineOpts []pipeline.Option
	if c.String("asr-url") != "" {
		acquirer, err := buildAcquirer(c)
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithAcquirer(acquirer))
	}

	orch, err := db.NewOrchestrator(pipelineOpts...)
	if err != nil {
		return err
	}

	concurrency := c.Int("concurrency")
	handlers := map[string]queue.Handler{
		queue.QueueVideo:     orch.HandleVideoJob,
		queue.QueuePDF:       orch.HandlePDFJob,
		queue.QueueKnowledge: orch.HandleKnowledgeJob,
	}

	workers := make([]*queue.Worker, 0, len(handlers))
	for name, handler := range handlers {
		worker, err := queue.NewWorker(db.Jobs(), name, handler,
			queue.WithConcurrency(concurrency))
		if err != nil {
			return err
		}
		workers = append(workers, worker)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(workers))
	for _, worker := range workers {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				errs <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logQueueStats(ctx, db, c.Duration("stats-interval"))
	}()

	slog.Info("workers running", "queues", len(handlers), "concurrency", concurrency)
	wg.Wait()
	close(errs)
	return <-errs
}

func logQueueStats(ctx context.Context, db *distill.Database, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, name := range []string{queue.QueueVideo, queue.QueuePDF, queue.QueueKnowledge} {
			stats, err := db.Jobs().QueueStats(ctx, name)
			if err != nil {
				slog.Error("reading queue stats", "queue", name, "err", err)
				continue
			}
			slog.Info("queue depth", "queue", name,
				"queued", stats.Queued, "running", stats.Running,
				"succeeded", stats.Succeeded, "failed", stats.Failed)
		}
	}
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, err := db.NewOrchestrator()
	if err != nil {
		return err
	}

	if c.Args().Len() == 0 {
		return fmt.Errorf("document id required")
	}
	var id uint64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("invalid document id %q", c.Args().First())
	}

	report, err := orch.Status(ctx, core.ID(id))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func insightCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewInsightService()
	if err != nil {
		return err
	}

	events, err := service.Stream(ctx, core.ID(c.Uint64("id")), c.Bool("force"))
	if err != nil {
		return err
	}
	return insight.EncodeStream(os.Stdout, events)
}

// noopAcquirer satisfies the orchestrator's video guard for commands that
// only enqueue work. Acquisition happens in the worker process.
type noopAcquirer struct{}

func (noopAcquirer) Acquire(context.Context, *transcript.Request) (*transcript.Result, error) {
	return nil, fmt.Errorf("transcript acquisition is handled by the worker")
}

func buildAcquirer(c *cli.Context) (*transcript.Acquirer, error) {
	extractor, err := transcript.NewFFmpegExtractor(
		transcript.WithBinary(c.String("ffmpeg")))
	if err != nil {
		return nil, err
	}

	recognizer, err := transcript.NewASRClient(
		c.String("asr-url"), c.String("asr-key"), c.String("asr-secret"))
	if err != nil {
		return nil, err
	}

	languages := strings.Split(c.String("caption-langs"), ",")
	for i := range languages {
		languages[i] = strings.TrimSpace(languages[i])
	}
	return transcript.NewAcquirer(extractor, recognizer,
		transcript.WithLanguages(languages...))
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
