package replay

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/redzone/internal/domain/model"
)

// Play kind weights. Most snaps do not score.
const (
	playKinds        = 10
	caseRushTD       = 0
	caseReceivingTD  = 1
	casePassingTD    = 2
	caseFieldGoal    = 3
	periodsPerGame   = 4
	secondsPerPeriod = 900
)

var firstNames = []string{"Patrick", "Isiah", "Travis", "Justin", "Davante", "Saquon", "Lamar", "Amon-Ra", "Derrick", "Tyreek"}

var lastNames = []string{"Mahomes", "Pacheco", "Kelce", "Jefferson", "Adams", "Barkley", "Jackson", "St. Brown", "Henry", "Hill"}

// generatePlayers builds a deterministic canonical player directory with
// provider-side and league-side platform ids for every player.
func generatePlayers(cfg *Config) []model.CanonicalPlayer {
	players := make([]model.CanonicalPlayer, cfg.Players)
	for i := range players {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i/len(firstNames))%len(lastNames)]
		players[i] = model.CanonicalPlayer{
			ID:   fmt.Sprintf("nfl-%04d", i+1),
			Name: fmt.Sprintf("%s %s", first, last),
			Team: fmt.Sprintf("TM%d", i%8),
			PlatformIDs: map[model.Platform]string{
				model.PlatformTank01:  fmt.Sprintf("40%04d", i+1),
				model.PlatformSleeper: fmt.Sprintf("%d", 8000+i),
			},
			Active:     true,
			LastPlayed: time.Now().UTC(),
		}
	}
	return players
}

// generateRosters spreads every player across a league's teams round
// robin, so each scripted scoring play lands on exactly one team.
func generateRosters(cfg *Config, leagueID string, players []model.CanonicalPlayer) []model.RosterEntry {
	entries := make([]model.RosterEntry, cfg.TeamsPerLeague)
	for t := range entries {
		entries[t] = model.RosterEntry{
			LeagueID: leagueID,
			Platform: model.PlatformSleeper,
			TeamID:   fmt.Sprintf("team-%d", t+1),
		}
	}
	for i, p := range players {
		t := i % cfg.TeamsPerLeague
		entries[t].PlayerIDs = append(entries[t].PlayerIDs, p.PlatformIDs[model.PlatformSleeper])
	}
	return entries
}

// generateGameScript scripts one game's chronological play list. Clocks
// tick down within each period so every play has a distinct identity.
func generateGameScript(rng *rand.Rand, cfg *Config, gameID string, players []model.CanonicalPlayer, stats *Stats) []model.RawPlay {
	plays := make([]model.RawPlay, 0, cfg.PlaysPerGame)
	for i := 0; i < cfg.PlaysPerGame; i++ {
		period := 1 + i*periodsPerGame/cfg.PlaysPerGame
		remaining := secondsPerPeriod - (i*37)%secondsPerPeriod
		player := players[rng.Intn(len(players))]

		play := model.RawPlay{
			PlayID:   fmt.Sprintf("%s-p%04d", gameID, i+1),
			GameID:   gameID,
			Period:   period,
			Clock:    fmt.Sprintf("%02d:%02d", remaining/60, remaining%60),
			PlayerID: player.PlatformIDs[model.PlatformTank01],
			TeamID:   player.Team,
		}

		switch rng.Intn(playKinds) {
		case caseRushTD:
			yards := 1 + rng.Intn(20)
			play.Scoring = true
			play.Stats = model.StatLine{RushTD: 1, RushYards: float64(yards)}
			play.Description = fmt.Sprintf("%s rush for %d yards, TOUCHDOWN", player.Name, yards)
		case caseReceivingTD:
			yards := 5 + rng.Intn(40)
			play.Scoring = true
			play.Stats = model.StatLine{RecTD: 1, Receptions: 1, RecYards: float64(yards)}
			play.Description = fmt.Sprintf("%s %d yard reception, TOUCHDOWN", player.Name, yards)
		case casePassingTD:
			yards := 5 + rng.Intn(50)
			play.Scoring = true
			play.Stats = model.StatLine{PassTD: 1, PassYards: float64(yards)}
			play.Description = fmt.Sprintf("%s pass complete for %d yards, TOUCHDOWN", player.Name, yards)
		case caseFieldGoal:
			yards := 20 + rng.Intn(35)
			play.Scoring = true
			play.Stats = model.StatLine{FGMade: 1}
			play.Description = fmt.Sprintf("%s %d yard field goal is GOOD", player.Name, yards)
		default:
			yards := rng.Intn(9)
			play.Stats = model.StatLine{RushYards: float64(yards)}
			play.Description = fmt.Sprintf("%s rush for %d yards", player.Name, yards)
		}

		if play.Scoring {
			stats.ScoringPlays++
		}
		stats.PlaysScripted++
		plays = append(plays, play)
	}
	return plays
}

// generateScript builds the scripted play list for every game.
func generateScript(cfg *Config, players []model.CanonicalPlayer, stats *Stats) map[string][]model.RawPlay {
	rng := rand.New(rand.NewSource(cfg.Seed))
	games := make(map[string][]model.RawPlay, cfg.Games)
	for g := 0; g < cfg.Games; g++ {
		gameID := fmt.Sprintf("replay-g%d", g+1)
		games[gameID] = generateGameScript(rng, cfg, gameID, players, stats)
	}
	return games
}
