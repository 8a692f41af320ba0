// Command dedupe runs a one-shot duplicate analysis over a snippet database
// and prints the groups it finds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/snipsd/snipsd/internal/config"
	"github.com/snipsd/snipsd/internal/core"
	"github.com/snipsd/snipsd/internal/store"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to TOML config file")
		dbPath    = flag.String("db", "", "path to the snippet database (overrides config)")
		threshold = flag.Float64("threshold", 0, "similarity threshold in (0, 1] (overrides config)")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load configuration")
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *threshold > 0 {
		cfg.Dedupe.Threshold = *threshold
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snippet store")
	}
	defer st.Close()

	// Ctrl-C cancels the pairwise pass between leader iterations.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := st.ListSnippets(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load snippets")
	}

	groups, err := core.Analyze(ctx, records, cfg.Dedupe.Threshold)
	if err != nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}

	if len(groups) == 0 {
		fmt.Printf("No duplicate groups found among %d snippets (threshold %.2f).\n",
			len(records), cfg.Dedupe.Threshold)
		return
	}

	fmt.Printf("Found %d duplicate group(s) among %d snippets (threshold %.2f):\n\n",
		len(groups), len(records), cfg.Dedupe.Threshold)
	for i, g := range groups {
		fmt.Printf("Group %d (similarity %.3f):\n", i+1, g.GroupSimilarity)
		for _, m := range g.Members {
			fmt.Printf("  [%d] %s\n", m.ID, m.Name)
		}
		fmt.Println()
	}
}
