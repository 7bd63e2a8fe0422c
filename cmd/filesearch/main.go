// Copyright 2025 Sovdef Labs
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
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sovdef/filesearch"
	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/config"
	"github.com/sovdef/filesearch/ingestion"
	"github.com/sovdef/filesearch/maintenance"
	"github.com/sovdef/filesearch/storage/badger"
)

// clientID used for rate limiting when invoked from the command line.
const cliClient = "cli"

func main() {
	app := &cli.App{
		Name:  "filesearch",
		Usage: "Document store search with cached, grounded answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the BadgerDB database directory",
				Value:   "filesearch.db",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "OpenAI-compatible API base URL",
			},
			&cli.StringFlag{
				Name:  "ai-model",
				Usage: "Generation model name",
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "Generation temperature (0.0-2.0)",
				Value: -1, // -1 means keep the configured value
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "store",
				Usage: "Manage document stores",
				Subcommands: []*cli.Command{
					{
						Name:      "create",
						Usage:     "Create a new document store",
						ArgsUsage: "NAME",
						Action:    storeCreateCommand,
					},
					{
						Name:   "list",
						Usage:  "List all document stores",
						Action: storeListCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a store and all of its files",
						ArgsUsage: "NAME",
						Action:    storeDeleteCommand,
					},
					{
						Name:      "show",
						Usage:     "Show a store's files",
						ArgsUsage: "NAME",
						Action:    storeShowCommand,
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload files into a store",
				ArgsUsage: "FILE...",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "store",
						Aliases:  []string{"s"},
						Usage:    "Target store name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace files that already exist in the store",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Ask a question against a store",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "store",
						Aliases:  []string{"s"},
						Usage:    "Store to search",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print cache and request metrics",
				Action: statsCommand,
			},
			{
				Name:   "verify",
				Usage:  "Check persisted stores for missing or corrupted file data",
				Action: verifyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for storage reads",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "extract",
						Usage: "Also confirm files can still be text-extracted",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildConfig merges the optional config file with command-line overrides.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("db") || cfg.DBPath == "" {
		cfg.DBPath = c.String("db")
	}
	if host := c.String("ai-host"); host != "" {
		cfg.AI.Host = host
	}
	if model := c.String("ai-model"); model != "" {
		cfg.AI.Model = model
	}
	if t := c.Float64("temperature"); t >= 0 {
		cfg.AI.Temperature = t
	}

	return cfg, cfg.Validate()
}

func openService(c *cli.Context) (*filesearch.Service, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, err
	}
	svc, err := filesearch.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

func storeCreateCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("store name is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	store, err := svc.CreateStore(context.Background(), cliClient, name)
	if err != nil {
		return err
	}
	fmt.Printf("created store %q\n", store.Name)
	return nil
}

func storeListCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	names, err := svc.ListStores(cliClient)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no stores")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func storeDeleteCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("store name is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.DeleteStore(context.Background(), cliClient, name); err != nil {
		return err
	}
	fmt.Printf("deleted store %q\n", name)
	return nil
}

func storeShowCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("store name is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	store, err := svc.GetStore(cliClient, name)
	if err != nil {
		return err
	}
	fmt.Printf("store %q, created %s, %d file(s)\n",
		store.Name, store.CreatedAt.Format("2006-01-02 15:04:05"), len(store.Files))
	for _, fd := range store.Files {
		fmt.Printf("  %-40s %8d bytes  %s\n", fd.Name, fd.Size, fd.MimeType)
	}
	return nil
}

func uploadCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	storeName := c.String("store")
	overwrite := c.Bool("overwrite")
	ctx := context.Background()

	uploads := make([]ingestion.Upload, 0, c.Args().Len())
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, ingestion.Upload{
			Filename: filepath.Base(path),
			MimeType: mimeFromPath(path),
			Data:     data,
		})
	}

	if len(uploads) == 1 {
		fd, err := svc.UploadFile(ctx, cliClient, storeName, uploads[0], overwrite)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s (%d bytes)\n", fd.Name, fd.Size)
		return nil
	}

	results, err := svc.UploadBatch(ctx, cliClient, storeName, uploads, overwrite)
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", res.Filename, res.Err)
			continue
		}
		fmt.Printf("uploaded %s (%d bytes)\n", res.Descriptor.Name, res.Descriptor.Size)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Search(context.Background(), cliClient, c.String("store"), query)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, cit := range result.Citations {
			fmt.Printf("  [%.2f] %s: %s\n", cit.Score, cit.Source, cit.Snippet)
		}
	}
	fmt.Fprintf(os.Stderr, "\n(cache hit: %v, latency: %s)\n", result.CacheHit, result.Latency)
	return nil
}

func statsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats := svc.CacheStats()
	fmt.Printf("cache: %d/%d entries, %d hits, %d misses\n",
		stats.Size, stats.Capacity, stats.Hits, stats.Misses)

	snap := svc.MetricsSnapshot()
	for name, v := range snap.Counters {
		fmt.Printf("%s: %d\n", name, v)
	}
	for name, h := range snap.Histograms {
		if h.Count == 0 {
			continue
		}
		fmt.Printf("%s: count=%d avg=%.3fs\n", name, h.Count, h.Sum/float64(h.Count))
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewStoreRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	verifyConfig := &maintenance.Config{
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if verifyConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if verifyConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	var extractor ai.Extractor
	if c.Bool("extract") {
		extractor = ai.NewTextExtractor()
	}

	verifier := maintenance.NewVerifier(repo, extractor, verifyConfig, os.Stderr)
	report, err := verifier.Run(ctx)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	for _, issue := range report.Issues {
		fmt.Printf("%s/%s: %s (%s)\n", issue.Store, issue.File, issue.Kind, issue.Detail)
	}
	if !report.Clean() {
		return fmt.Errorf("%d integrity issue(s) found", len(report.Issues))
	}
	fmt.Printf("all %d file(s) verified\n", report.FilesChecked)
	return nil
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

// mimeFromPath maps common document extensions to their MIME types.
// Unknown extensions fall through as octet-stream and are rejected by
// upload validation with a clear error.
func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
