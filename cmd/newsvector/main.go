// Copyright 2025 Tidefall Labs
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
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tidefall/newsvector"
	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "newsvector",
		Usage: "Hybrid semantic retrieval over a news content corpus",
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
				Name:   "ingest",
				Usage:  "Load content items from a JSON file and enqueue embedding updates",
				Action: ingestCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON array of content items",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Queue priority (1=low, 2=normal, 3=high)",
						Value: int(core.PriorityNormal),
					},
				),
			},
			{
				Name:   "drain",
				Usage:  "Claim and process pending embedding updates",
				Action: drainCommand,
				Flags: append(systemFlags(),
					&cli.IntFlag{
						Name:  "max-items",
						Usage: "Maximum items to claim in this drain",
						Value: 50,
					},
				),
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the search index, enqueueing content without embeddings",
				Action: rebuildCommand,
				Flags:  systemFlags(),
			},
			{
				Name:   "stats",
				Usage:  "Print a statistics snapshot of the retrieval subsystem",
				Action: statsCommand,
				Flags:  systemFlags(),
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(systemFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "types",
						Usage: "Comma-separated content types to search",
						Value: "article",
					},
					&cli.Float64Flag{
						Name:  "keyword-weight",
						Usage: "Fusion weight for the keyword ranking",
						Value: 0.3,
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Fusion weight for the vector ranking",
						Value: 0.7,
					},
				),
			},
			{
				Name:   "entities",
				Usage:  "Search recognized entities",
				Action: entitiesCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:  "query",
						Usage: "Free-text match against entity names",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Filter by entity type",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum entities",
						Value: 20,
					},
				),
			},
			{
				Name:   "analytics",
				Usage:  "Summarize search traffic from the search log",
				Action: analyticsCommand,
				Flags: append(systemFlags(),
					&cli.DurationFlag{
						Name:  "window",
						Usage: "Lookback window",
						Value: 24 * time.Hour,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func systemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "recognizer-host",
			Usage: "Entity recognizer host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "recognizer-model",
			Usage: "Entity recognizer model name",
			Value: "gpt-4o-mini",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
			Value: 1536,
		},
		&cli.Float64Flag{
			Name:  "min-confidence",
			Usage: "Minimum recognition confidence kept",
			Value: 0.5,
		},
	}
}

func openSystem(c *cli.Context) (*newsvector.System, error) {
	recognizerHost := c.String("recognizer-host")
	if recognizerHost == "" {
		recognizerHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRecognizerHost(recognizerHost),
		ai.WithRecognizerModel(c.String("recognizer-model")),
		ai.WithEmbeddingDimension(c.Int("dimension")),
		ai.WithMinConfidence(float32(c.Float64("min-confidence"))),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	system, err := newsvector.Open(c.String("db"), newsvector.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open system: %w", err)
	}
	return system, nil
}

// contentItem is the JSON shape accepted by the ingest command.
type contentItem struct {
	ContentID   string   `json:"contentId"`
	ContentType string   `json:"contentType"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Excerpt     string   `json:"excerpt"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
	Published   bool     `json:"published"`
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	var items []contentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse content file: %w", err)
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	priority := core.Priority(c.Int("priority"))
	for _, item := range items {
		content := &core.Content{
			ContentID:   item.ContentID,
			ContentType: core.ContentType(item.ContentType),
			Title:       item.Title,
			Body:        item.Body,
			Excerpt:     item.Excerpt,
			Keywords:    item.Keywords,
			Category:    item.Category,
			Published:   item.Published,
		}
		queued, err := system.IngestContent(ctx, content, priority)
		if err != nil {
			return fmt.Errorf("failed to ingest %s/%s: %w", item.ContentType, item.ContentID, err)
		}
		fmt.Fprintf(os.Stderr, "queued %s/%s as item %d (%s)\n",
			item.ContentType, item.ContentID, queued.Id, queued.UpdateType)
	}

	fmt.Fprintf(os.Stderr, "ingested %d content items\n", len(items))
	return nil
}

func drainCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	report, err := system.Queue().Drain(context.Background(), c.Int("max-items"))
	if err != nil {
		return fmt.Errorf("drain failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "claimed %d, completed %d, failed %d\n",
		report.Claimed, report.Completed, report.Failed)
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			fmt.Fprintf(os.Stderr, "  item %d %s/%s: %v\n",
				outcome.Item.Id, outcome.Item.ContentType, outcome.Item.ContentID, outcome.Err)
		}
	}
	return nil
}

func rebuildCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	report, err := system.Maintainer().Rebuild(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "rebuild complete: %d items enqueued, %d active vectors, %dms\n",
		report.Enqueued, report.TotalVectors, report.DurationMs)
	return nil
}

func statsCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	snapshot, err := system.Stats().Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	fmt.Printf("health: %s\n", snapshot.HealthStatus)
	fmt.Printf("embeddings: %d active / %d total, avg quality %d\n",
		snapshot.Embeddings.Active, snapshot.Embeddings.Total, snapshot.Embeddings.AvgQualityScore)
	for contentType, count := range snapshot.Embeddings.ByType {
		fmt.Printf("  %s: %d\n", contentType, count)
	}
	fmt.Printf("entities: %d total, %d verified (%.0f%%)\n",
		snapshot.Entities.Total, snapshot.Entities.Verified, snapshot.Entities.VerificationRate*100)
	for status, count := range snapshot.Queue {
		fmt.Printf("queue %s: %d\n", status, count)
	}
	fmt.Printf("index %q: status=%s vectors=%d lastBuild=%s\n",
		snapshot.Index.Name, snapshot.Index.Status, snapshot.Index.TotalVectors,
		snapshot.Index.LastBuildAt.Format(time.RFC3339))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	contentTypes, err := parseContentTypes(c.String("types"))
	if err != nil {
		return err
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	result, err := system.Searcher().HybridSearch(context.Background(), query, contentTypes,
		c.Int("limit"), c.Float64("keyword-weight"), c.Float64("vector-weight"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("%d results in %dms\n", len(result.Hits), result.QueryTimeMs)
	for i, hit := range result.Hits {
		fmt.Printf("%2d. %-16s %s  score=%.4f\n", i+1, hit.ContentType, hit.ContentID, hit.Score)
	}
	return nil
}

func entitiesCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	entities, err := system.EntityRepository().Search(context.Background(),
		c.String("query"), c.String("type"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("entity search failed: %w", err)
	}

	for _, entity := range entities {
		fmt.Printf("%-24s %-16s mentions=%d confidence=%.2f verified=%t\n",
			entity.Name, entity.EntityType, entity.MentionCount, entity.Confidence, entity.IsVerified)
	}
	return nil
}

func analyticsCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	since := time.Now().Add(-c.Duration("window"))
	report, err := system.Analytics().Report(context.Background(), since)
	if err != nil {
		return fmt.Errorf("failed to build analytics report: %w", err)
	}

	fmt.Printf("queries since %s: %d (avg %.1fms)\n",
		since.Format(time.RFC3339), report.TotalQueries, report.AvgQueryTimeMs)
	for searchType, count := range report.QueriesByType {
		fmt.Printf("  %s: %d\n", searchType, count)
	}
	for _, qc := range report.TopQueries {
		fmt.Printf("  %4d  %s\n", qc.Count, qc.Query)
	}
	return nil
}

func parseContentTypes(s string) ([]core.ContentType, error) {
	parts := strings.Split(s, ",")
	contentTypes := make([]core.ContentType, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		contentType := core.ContentType(part)
		if !core.ValidContentType(contentType) {
			return nil, fmt.Errorf("invalid content type %q", part)
		}
		contentTypes = append(contentTypes, contentType)
	}
	if len(contentTypes) == 0 {
		return nil, fmt.Errorf("at least one content type is required")
	}
	return contentTypes, nil
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
