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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/aetheris"
	"github.com/poiesic/aetheris/ai"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/indexer"
)

func main() {
	app := &cli.App{
		Name:  "aetheris",
		Usage: "Contextual retrieval and correlation engine for threat intelligence",
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
				Name:   "index",
				Usage:  "Rebuild the vector index from the document store",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-features",
						Usage: "Vocabulary cap for the local vectorizer",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for batch vectorization",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents per worker batch",
						Value: 128,
					},
					&cli.BoolFlag{
						Name:  "remote-embedder",
						Usage: "Embed with a remote model instead of the local vectorizer",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
				},
			},
			{
				Name:   "ask",
				Usage:  "Run one query through the retrieval engine",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "The question to answer",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "history",
						Usage: "File with prior turns, one per line as 'user: ...' or 'assistant: ...'",
					},
					&cli.BoolFlag{
						Name:  "context-only",
						Usage: "Print the assembled prompt context instead of calling the generation model",
					},
					&cli.StringFlag{
						Name:  "generation-host",
						Usage: "Generation service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "generation-model",
						Usage: "Generation model name",
						Value: "qwen2.5:3b",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load the bundled sample corpus, assets and labels, then build the index",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRemoteEmbedder(c.Bool("remote-embedder")),
	)

	db, err := aetheris.NewDatabase(c.String("db"), aetheris.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	opts := []indexer.Option{
		indexer.WithBatchSize(c.Int("batch-size")),
		indexer.WithProgress(os.Stderr),
	}
	if c.Int("max-features") > 0 {
		opts = append(opts, indexer.WithMaxFeatures(c.Int("max-features")))
	}
	if c.Int("pool-size") > 0 {
		opts = append(opts, indexer.WithPoolSize(c.Int("pool-size")))
	}

	builder, err := db.NewIndexBuilder(opts...)
	if err != nil {
		return fmt.Errorf("failed to create index builder: %w", err)
	}
	defer builder.Release()

	stats, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d documents (%d dims) in %s\n",
		stats.Documents, stats.Dim, stats.Elapsed)
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	history, err := loadHistory(c.String("history"))
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfig(
		ai.WithGenerationHost(c.String("generation-host")),
		ai.WithGenerationModel(c.String("generation-model")),
	)

	db, err := aetheris.NewDatabase(c.String("db"), aetheris.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if c.Bool("context-only") {
		bundle, err := engine.RetrieveContext(ctx, c.String("query"), history)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		fmt.Println(ai.RenderPrompt(bundle))
		return nil
	}

	answer, bundle, err := engine.Answer(ctx, c.String("query"), history)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "intent=%s documents=%d assets=%d\n",
		bundle.Intent, len(bundle.Documents), len(bundle.Assets))
	fmt.Println(answer)
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := aetheris.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs, assets, labels, err := seedData(ctx, db)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	builder, err := db.NewIndexBuilder(indexer.WithProgress(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to create index builder: %w", err)
	}
	defer builder.Release()

	stats, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d documents, %d assets, %d labels; indexed in %s\n",
		docs, assets, labels, stats.Elapsed)
	return nil
}

// loadHistory reads prior conversation turns from a file, one per line in
// the form "user: text" or "assistant: text". Blank lines are skipped.
func loadHistory(path string) ([]core.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var turns []core.ConversationTurn
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		role, text, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed history line %q", line)
		}
		turn := core.ConversationTurn{Text: strings.TrimSpace(text)}
		switch strings.ToLower(strings.TrimSpace(role)) {
		case "user":
			turn.Role = core.RoleUser
		case "assistant":
			turn.Role = core.RoleAssistant
		default:
			return nil, fmt.Errorf("unknown role in history line %q", line)
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
