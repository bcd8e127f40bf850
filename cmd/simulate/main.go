// Package main provides a CLI that simulates a single game between two teams
// loaded from roster YAML files or from the database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
	"github.com/cory-johannsen/hockeysim/internal/observability"
	"github.com/cory-johannsen/hockeysim/internal/storage/postgres"
)

type options struct {
	configPath string
	homeFile   string
	awayFile   string
	homeID     string
	awayID     string
	seed       uint64
	format     string
	trace      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to configuration file (required with -home-id/-away-id)")
	flag.StringVar(&opts.homeFile, "home", "", "home team roster YAML")
	flag.StringVar(&opts.awayFile, "away", "", "away team roster YAML")
	flag.StringVar(&opts.homeID, "home-id", "", "home team ID in the database")
	flag.StringVar(&opts.awayID, "away-id", "", "away team ID in the database")
	flag.Uint64Var(&opts.seed, "seed", 0, "deterministic seed (0 = crypto randomness)")
	flag.StringVar(&opts.format, "format", "text", "output format: text or json")
	flag.BoolVar(&opts.trace, "trace", false, "log every random draw at debug level")
	flag.Parse()

	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("simulate: %v", err)
	}
}

func (o options) validate() error {
	fromFiles := o.homeFile != "" || o.awayFile != ""
	fromDB := o.homeID != "" || o.awayID != ""
	switch {
	case fromFiles && fromDB:
		return errors.New("use either -home/-away or -home-id/-away-id, not both")
	case fromFiles && (o.homeFile == "" || o.awayFile == ""):
		return errors.New("-home and -away are both required")
	case fromDB && (o.homeID == "" || o.awayID == ""):
		return errors.New("-home-id and -away-id are both required")
	case fromDB && o.homeID == o.awayID:
		return fmt.Errorf("a team cannot play itself: %q", o.homeID)
	case fromDB && o.configPath == "":
		return errors.New("-config is required to load teams from the database")
	case !fromFiles && !fromDB:
		return errors.New("no teams given")
	}
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q", o.format)
	}
	return nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	logCfg := config.LoggingConfig{Level: "warn", Format: "console"}
	var cfg config.Config
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logCfg = cfg.Logging
	}
	if opts.trace {
		logCfg.Level = "debug"
	}
	logger, err := observability.NewLogger(logCfg, "simulate")
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	home, away, err := loadTeams(ctx, opts, cfg)
	if err != nil {
		return err
	}
	if home.ID == away.ID {
		return fmt.Errorf("a team cannot play itself: %q", home.ID)
	}

	var src random.Source
	if opts.seed != 0 {
		src = random.NewSeeded(opts.seed, 0)
	} else {
		src = random.NewCryptoSource()
	}
	if opts.trace {
		src = random.NewLoggedSource(src, logger)
	}

	res, err := sim.New(logger).Simulate(home, away, src)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeReport(out, home, away, res)
}

func loadTeams(ctx context.Context, opts options, cfg config.Config) (*roster.Team, *roster.Team, error) {
	if opts.homeFile != "" {
		home, err := roster.LoadTeamFile(opts.homeFile)
		if err != nil {
			return nil, nil, err
		}
		away, err := roster.LoadTeamFile(opts.awayFile)
		if err != nil {
			return nil, nil, err
		}
		return home, away, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewTeamRepository(pool.DB())
	home, err := repo.LoadTeam(ctx, opts.homeID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading home team %q: %w", opts.homeID, err)
	}
	away, err := repo.LoadTeam(ctx, opts.awayID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading away team %q: %w", opts.awayID, err)
	}
	return home, away, nil
}
