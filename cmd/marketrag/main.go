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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/marketrag"
	"github.com/poiesic/marketrag/config"
	"github.com/poiesic/marketrag/search"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "marketrag",
		Usage: "Ticker-scoped retrieval over ETF news and market events",
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
				Usage:   "Path to YAML config file",
				EnvVars: []string{"MARKETRAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before configuration; a missing file is ignored",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnvFile(c.String("env-file")); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Rebuild both indexes and report the build results",
				Action: buildCommand,
			},
			{
				Name:   "news",
				Usage:  "Rank news articles for a set of tickers",
				Action: newsCommand,
				Flags: []cli.Flag{
					tickerFlag(),
					termFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of articles",
						Value:   search.DefaultNewsLimit,
					},
					&cli.IntFlag{
						Name:  "recent-hours",
						Usage: "Preferred recency window in hours (0 uses the configured default)",
					},
				},
			},
			{
				Name:   "brief",
				Usage:  "Produce a per-ticker decision brief from market events",
				Action: briefCommand,
				Flags: []cli.Flag{
					tickerFlag(),
					termFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum key events per ticker",
						Value:   search.DefaultLimitPerTicker,
					},
				},
			},
		},
	}
}

func tickerFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "ticker",
		Aliases:  []string{"t"},
		Usage:    "ETF ticker to query (repeatable, or comma separated)",
		Required: true,
	}
}

func termFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "term",
		Usage: "Extra query expansion term (repeatable)",
	}
}

func buildCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.BuildAll(c.Context)
	if err != nil {
		return fmt.Errorf("failed to build indexes: %w", err)
	}
	return writeJSON(c.App.Writer, results)
}

func newsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := engine.News().Search(c.Context, search.NewsQuery{
		Tickers:           c.StringSlice("ticker"),
		Limit:             c.Int("limit"),
		PreferRecentHours: c.Int("recent-hours"),
		Terms:             c.StringSlice("term"),
	})
	if err != nil {
		return fmt.Errorf("news search failed: %w", err)
	}
	return writeJSON(c.App.Writer, res)
}

func briefCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := engine.Decision().Brief(c.Context, search.DecisionQuery{
		Tickers:        c.StringSlice("ticker"),
		LimitPerTicker: c.Int("limit"),
		Terms:          c.StringSlice("term"),
	})
	if err != nil {
		return fmt.Errorf("decision brief failed: %w", err)
	}
	return writeJSON(c.App.Writer, res)
}

func openEngine(c *cli.Context) (*marketrag.Engine, error) {
	cfg, errs := config.Load(c.String("config"))
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	slog.Debug("configuration loaded", "settings", cfg.LogSummary())

	engine, err := marketrag.NewEngine(cfg, marketrag.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return engine, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadEnvFile exports the variables of a dotenv file. Variables already set in the
// environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
