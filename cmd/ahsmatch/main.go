// Command ahsmatch matches free-text construction job descriptions
// against an AHS unit-price catalog. It runs as an HTTP server or as a
// one-shot CLI for single, bulk, search, and breakdown queries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/breakdown"
	"github.com/rencanakan/ahsmatch/internal/catalog"
	"github.com/rencanakan/ahsmatch/internal/config"
	"github.com/rencanakan/ahsmatch/internal/embedding"
	"github.com/rencanakan/ahsmatch/internal/logging"
	"github.com/rencanakan/ahsmatch/internal/match"
	"github.com/rencanakan/ahsmatch/internal/server"
	"github.com/rencanakan/ahsmatch/internal/service"
	"github.com/rencanakan/ahsmatch/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "ahsmatch",
		Usage:   "Match construction job descriptions against an AHS catalog",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Catalog CSV path (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "JSON log output",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the matching HTTP server",
				Action: serveCommand,
			},
			{
				Name:      "match",
				Aliases:   []string{"m"},
				Usage:     "Match one job description",
				ArgsUsage: "<description>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "unit",
						Aliases: []string{"u"},
						Usage:   "Expected unit of measure (e.g. m3)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Max results in a multi-match outcome",
					},
				},
				Action: matchCommand,
			},
			{
				Name:  "bulk",
				Usage: "Match job descriptions from JSON files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Glob selecting JSON files of bulk items",
						Required: true,
					},
				},
				Action: bulkCommand,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "List catalog candidates for a term",
				ArgsUsage: "<term>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Max candidates (0 uses the default)",
					},
				},
				Action: searchCommand,
			},
			{
				Name:      "breakdown",
				Usage:     "Show the cost breakdown for an AHS code",
				ArgsUsage: "<code>",
				Action:    breakdownCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// engine bundles the wired services behind each CLI command.
type engine struct {
	cfg     *config.Config
	log     *zap.Logger
	repo    *catalog.CSVRepository
	matcher *service.Matcher
	bd      *breakdown.Service
}

// newEngine loads configuration, applies CLI flag overrides, and wires
// the catalog, matcher, and breakdown services. Watching is only
// worthwhile for long-running commands.
func newEngine(c *cli.Context, watch bool) (*engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if csvPath := c.String("csv"); csvPath != "" {
		cfg.Catalog.Path = csvPath
	}
	if c.Bool("json") {
		cfg.Logging.JSON = true
	}
	if c.Bool("debug") {
		cfg.Logging.Debug = true
	}

	log, err := logging.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	repo := catalog.NewCSVRepository(cfg.Catalog.Path, cfg.Catalog.SHA256, log).
		WithCaps(cfg.Catalog.NameCandidateCap, cfg.Catalog.GetAllCap)
	if err := repo.Load(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if watch && cfg.Catalog.Watch {
		if err := repo.Watch(cfg.Catalog.WatchDebounce()); err != nil {
			log.Warn("catalog watch unavailable", zap.Error(err))
		}
	}

	expander, err := buildExpander(cfg, repo, log)
	if err != nil {
		return nil, err
	}

	thresholds := service.Thresholds{
		Single:     cfg.Thresholds.Single,
		Multi:      cfg.Thresholds.Multi,
		SingleWord: cfg.Thresholds.SingleWord,
		Limit:      cfg.Thresholds.Limit,
	}
	if limit := c.Int("limit"); limit > 0 {
		thresholds.Limit = limit
	}

	return &engine{
		cfg:     cfg,
		log:     log,
		repo:    repo,
		matcher: service.NewMatcher(repo, thresholds, expander, log),
		bd:      breakdown.NewService(cfg.Breakdown.DataDir, log),
	}, nil
}

// buildExpander indexes the catalog vocabulary for embedding-based
// synonym lookups. A disabled embedding section leaves the matcher on
// its static synonym table alone.
func buildExpander(cfg *config.Config, repo *catalog.CSVRepository, log *zap.Logger) (match.Expander, error) {
	if !cfg.Embedding.Enabled {
		return nil, nil
	}

	rows := repo.GetAll()
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}

	embedder := embedding.NewHashingEmbedder(cfg.Embedding.Dim)
	expander := embedding.NewVocabularyExpander(embedder, log).WithMinScore(cfg.Embedding.MinScore)
	if err := expander.Build(context.Background(), embedding.TermsFromNames(names)); err != nil {
		return nil, fmt.Errorf("building synonym vocabulary: %w", err)
	}
	return expander, nil
}

func (e *engine) close() {
	if err := e.repo.Close(); err != nil {
		e.log.Warn("closing catalog", zap.Error(err))
	}
	_ = e.log.Sync()
}

func serveCommand(c *cli.Context) error {
	eng, err := newEngine(c, true)
	if err != nil {
		return err
	}
	defer eng.close()

	eng.log.Info("starting", zap.String("build", version.FullInfo()))
	srv := server.New(eng.cfg.Server, eng.matcher, eng.bd, eng.log)
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	eng.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), eng.cfg.Server.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
