package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/redzone/internal/replay"
)

// Default scenario constants.
const (
	defaultLeagues      = 3
	defaultTeams        = 10
	defaultPlayers      = 60
	defaultGames        = 4
	defaultPlaysPerGame = 80
	defaultRounds       = 8
	defaultSeed         = 1
	replayTimeout       = 5 * time.Minute
)

func main() {
	var (
		leagues = flag.Int("leagues", defaultLeagues, "Number of leagues to attribute events into")
		teams   = flag.Int("teams", defaultTeams, "Teams per league")
		players = flag.Int("players", defaultPlayers, "Players in the scripted directory")
		games   = flag.Int("games", defaultGames, "Concurrent games to script")
		plays   = flag.Int("plays", defaultPlaysPerGame, "Plays per game")
		rounds  = flag.Int("rounds", defaultRounds, "Poll rounds to reveal the script across")
		seed    = flag.Int64("seed", defaultSeed, "Random seed for deterministic scripts")
		logFile = flag.String("log", "", "Log file for replay output (default: replay_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable per-round and per-league logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		replay.ShowHelp()
		return
	}

	if err := replay.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
	defer cancel()

	cfg := &replay.Config{
		Leagues:        *leagues,
		TeamsPerLeague: *teams,
		Players:        *players,
		Games:          *games,
		PlaysPerGame:   *plays,
		Rounds:         *rounds,
		Seed:           *seed,
		Verbose:        *verbose,
		LogFile:        *logFile,
	}

	if err := replay.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Replay failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
