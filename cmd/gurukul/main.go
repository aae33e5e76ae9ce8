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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/gurukul"
	"github.com/poiesic/gurukul/config"
	"github.com/poiesic/gurukul/reembed"
	"github.com/poiesic/gurukul/tagindex"
	"github.com/poiesic/gurukul/thesaurus"
	"github.com/urfave/cli/v2"
)

var errCollectionDisabled = errors.New("no retrieval endpoint configured")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gurukul",
		Usage: "Query enhancement and verse collection over a scripture corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"GURUKUL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "build-thesaurus",
				Usage:  "Build the synonym map from Amarakosha TEI files",
				Action: buildThesaurusCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "TEI XML file (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the synonym map to write",
					},
					&cli.IntFlag{
						Name:  "min-lines",
						Usage: "Fall back to verse splitting below this many <l> tags",
						Value: thesaurus.DefaultMinLineTags,
					},
					&cli.IntFlag{
						Name:  "min-entries",
						Usage: "Warn when the map has fewer entries than this",
						Value: thesaurus.DefaultMinEntries,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents tokenized concurrently (0 for default)",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Only report the <l> tag count of each input",
					},
				},
			},
			{
				Name:   "mine-tags",
				Usage:  "Collect the tag vocabulary from verse metadata JSONL files",
				Action: mineTagsCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Metadata JSONL file (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path of the tag vocabulary to write",
						Required: true,
					},
				},
			},
			{
				Name:   "build-index",
				Usage:  "Embed the tag vocabulary into a tag index",
				Action: buildIndexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tags",
						Usage: "Tag vocabulary file (defaults to assets.tags)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the tag index to write (defaults to assets.index)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of tags sent in each embedding request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N tags",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "enhance",
				Usage:     "Enhance a query and print the result",
				ArgsUsage: "QUERY...",
				Action:    enhanceCommand,
			},
			{
				Name:      "collect",
				Usage:     "Enhance a question, retrieve verses and print the result",
				ArgsUsage: "QUESTION...",
				Action:    collectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session identifier echoed in the result",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the collector over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (defaults to server.addr)",
					},
				},
			},
		},
	}
}

func buildThesaurusCommand(c *cli.Context) error {
	inputs := c.StringSlice("input")

	if c.Bool("check") {
		for _, path := range inputs {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			fmt.Fprintf(c.App.Writer, "%s: %d <l> tags\n", path, thesaurus.CountLineTags(data))
		}
		return nil
	}

	output := c.String("output")
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	opts := []thesaurus.Option{
		thesaurus.WithMinLineTags(c.Int("min-lines")),
		thesaurus.WithMinEntries(c.Int("min-entries")),
	}
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, thesaurus.WithPoolSize(n))
	}
	builder, err := thesaurus.NewBuilder(opts...)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	defer builder.Release()

	result, err := builder.BuildFiles(c.Context, inputs...)
	if err != nil {
		return fmt.Errorf("thesaurus build failed: %w", err)
	}
	if err := thesaurus.SaveMap(output, result.Map); err != nil {
		return fmt.Errorf("failed to write synonym map: %w", err)
	}

	r := result.Report
	fmt.Fprintf(c.App.Writer, "Documents: %d\n", r.Documents)
	fmt.Fprintf(c.App.Writer, "Lines used: %d of %d\n", r.LinesUsed, r.LinesSeen)
	fmt.Fprintf(c.App.Writer, "Entries: %d\n", r.Entries)
	if r.UsedFallback {
		fmt.Fprintln(c.App.Writer, "Verse splitter fallback was used")
	}
	if r.LowConfidence {
		slog.Warn("synonym map is smaller than expected", "entries", r.Entries, "min_entries", c.Int("min-entries"))
	}
	return nil
}

func mineTagsCommand(c *cli.Context) error {
	miner := tagindex.NewMiner(nil)
	for _, path := range c.StringSlice("input") {
		if err := miner.MineFile(path); err != nil {
			return fmt.Errorf("failed to mine %s: %w", path, err)
		}
	}

	tags := miner.Tags()
	if len(tags) == 0 {
		return fmt.Errorf("no tags found")
	}
	if err := tagindex.SaveTags(c.String("output"), tags); err != nil {
		return fmt.Errorf("failed to write tag vocabulary: %w", err)
	}

	stats := miner.Stats()
	fmt.Fprintf(c.App.Writer, "Sources: %d\n", stats.Sources)
	fmt.Fprintf(c.App.Writer, "Records: %d (%d malformed)\n", stats.Records, stats.Malformed)
	fmt.Fprintf(c.App.Writer, "Tags: %d\n", len(tags))
	return nil
}

func buildIndexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	tagsPath := c.String("tags")
	if tagsPath == "" {
		tagsPath = cfg.Assets.Tags
	}
	output := c.String("output")
	if output == "" {
		output = cfg.Assets.Index
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	tags, err := tagindex.LoadTags(tagsPath)
	if err != nil {
		return err
	}

	provider, err := gurukul.NewProvider(c.Context, &cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	fmt.Fprintf(os.Stderr, "Tags: %s (%d)\n", tagsPath, len(tags))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	index, err := reembed.NewReembedder(provider.Embedder(), reembedConfig, os.Stderr).Run(c.Context, tags)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if err := tagindex.SaveIndex(output, index); err != nil {
		return fmt.Errorf("failed to write tag index: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d vectors of dimension %d to %s\n", index.Len(), index.Dim(), output)
	return nil
}

func enhanceCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Enhancer().Enhance(c.Context, query)
	if err != nil {
		return err
	}
	return printJSON(c, result)
}

func collectCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is required")
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.Collector() == nil {
		return errCollectionDisabled
	}
	result, err := rt.Collector().Collect(c.Context, question, c.String("session"))
	if err != nil {
		return err
	}
	return printJSON(c, result)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config()
	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	slog.Info("serving", "addr", addr, "collection", rt.Collector() != nil)
	return rt.NewServer().ListenAndServe(ctx, addr, cfg.Server.ShutdownTimeout)
}

// loadConfig reads --config, or the defaults plus the environment when unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}
	return config.Load(path)
}

func openRuntime(c *cli.Context) (*gurukul.Runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return gurukul.NewRuntime(c.Context, cfg)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
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

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
