// Package main imports team roster YAML files into the database and can
// optionally generate a round-robin schedule between the imported teams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/league"
	"github.com/cory-johannsen/hockeysim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "rosters", "directory of team roster YAML files")
	schedule := flag.Bool("schedule", false, "schedule a round-robin between the imported teams")
	double := flag.Bool("double", false, "with -schedule, play each pairing home and away")
	firstDay := flag.String("start", "", "with -schedule, first game day as YYYY-MM-DD (default tomorrow)")
	gameTime := flag.Duration("game-time", 19*time.Hour, "with -schedule, puck drop offset from midnight UTC")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-roster -dir <dir> [-config <file>] [-schedule [-double] [-start YYYY-MM-DD]]")
		os.Exit(1)
	}

	day := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	if *firstDay != "" {
		parsed, err := time.Parse(time.DateOnly, *firstDay)
		if err != nil {
			log.Fatalf("parsing -start: %v", err)
		}
		day = parsed
	}

	teams, err := roster.LoadTeams(*dir)
	if err != nil {
		log.Fatalf("loading rosters: %v", err)
	}
	if len(teams) == 0 {
		log.Fatalf("no roster files found in %s", *dir)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	teamRepo := postgres.NewTeamRepository(pool.DB())
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		if err := teamRepo.SaveTeam(ctx, t); err != nil {
			log.Fatalf("importing %s: %v", t.Name, err)
		}
		ids = append(ids, t.ID)
		fmt.Fprintf(os.Stdout, "imported %s (%s): %d players\n", t.Name, t.ID, len(t.Players))
	}

	if *schedule {
		gameRepo := postgres.NewGameRepository(pool.DB())
		fixtures := league.RoundRobin(ids, day.Add(*gameTime), *double)
		for _, f := range fixtures {
			g, err := gameRepo.ScheduleGame(ctx, f.HomeTeamID, f.AwayTeamID, f.At)
			if err != nil {
				log.Fatalf("scheduling %s vs %s: %v", f.AwayTeamID, f.HomeTeamID, err)
			}
			fmt.Fprintf(os.Stdout, "scheduled #%d %s @ %s on %s\n", g.ID, f.AwayTeamID, f.HomeTeamID, f.At.Format(time.DateTime))
		}
	}

	fmt.Fprintf(os.Stdout, "import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
