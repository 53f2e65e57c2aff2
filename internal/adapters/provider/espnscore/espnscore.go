// Package espnscore implements the backup scoring-event source on top of
// ESPN's public scoreboard and game summary endpoints. It reports only
// scoring plays, which is all the attribution pipeline needs from a
// fallback provider.
package espnscore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/okian/redzone/internal/adapters/httpclient"
	"github.com/okian/redzone/internal/domain/model"
)

const (
	// DefaultBaseURL is ESPN's public site API for NFL data.
	DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	name = "espn"
)

// Source fetches the live scoreboard and per-game scoring plays.
type Source struct {
	client *httpclient.Client
}

// New creates a source. ESPN's site API needs no key; the gentler rate
// limit is the only contract.
func New(opts ...Option) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = httpclient.New(
			httpclient.WithBaseURL(DefaultBaseURL),
			httpclient.WithProviderName(name),
			httpclient.WithMinInterval(2*time.Second),
			httpclient.WithHeader("User-Agent", "Mozilla/5.0 (compatible; redzone/1.0)"),
		)
	}
	return s
}

func (s *Source) Name() string             { return name }
func (s *Source) Platform() model.Platform { return model.PlatformESPN }

// RequestStats exposes the HTTP client's accounting for diagnostics.
func (s *Source) RequestStats() httpclient.Stats { return s.client.Stats() }

type scoreboardResponse struct {
	Events []struct {
		ID     string `json:"id"`
		Status struct {
			Type struct {
				State string `json:"state"`
			} `json:"type"`
		} `json:"status"`
	} `json:"events"`
}

// ActiveGames returns event ids the scoreboard reports as in progress.
func (s *Source) ActiveGames(ctx context.Context) ([]string, error) {
	body, err := s.client.Get(ctx, "/scoreboard", nil)
	if err != nil {
		return nil, fmt.Errorf("scoreboard fetch: %w", err)
	}

	var resp scoreboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("scoreboard decode: %w", err)
	}

	var live []string
	for _, event := range resp.Events {
		if event.Status.Type.State == "in" {
			live = append(live, event.ID)
		}
	}
	return live, nil
}

type summaryResponse struct {
	ScoringPlays []scoringPlay `json:"scoringPlays"`
}

type scoringPlay struct {
	ID   string `json:"id"`
	Type struct {
		Text string `json:"text"`
	} `json:"type"`
	Text   string `json:"text"`
	Period struct {
		Number int `json:"number"`
	} `json:"period"`
	Clock struct {
		DisplayValue string `json:"displayValue"`
	} `json:"clock"`
	Team struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Participants []participant `json:"participants"`
}

type participant struct {
	Type    string  `json:"type"`
	Yards   float64 `json:"yards"`
	Athlete struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"athlete"`
}

// PlayByPlay returns the game's scoring plays in chronological order, one
// entry per credited participant. ESPN's summary only itemizes scoring
// plays, so every returned play is a scoring play.
func (s *Source) PlayByPlay(ctx context.Context, gameID string) ([]model.RawPlay, error) {
	params := url.Values{}
	params.Set("event", gameID)

	body, err := s.client.Get(ctx, "/summary", params)
	if err != nil {
		return nil, fmt.Errorf("summary fetch %s: %w", gameID, err)
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("summary decode %s: %w", gameID, err)
	}

	var plays []model.RawPlay
	for _, play := range resp.ScoringPlays {
		for _, part := range play.Participants {
			stats := part.statLine(play.Type.Text)
			if stats.IsZero() {
				continue
			}
			playID := play.ID
			if len(play.Participants) > 1 {
				playID = play.ID + ":" + part.Athlete.ID
			}
			plays = append(plays, model.RawPlay{
				PlayID:      playID,
				GameID:      gameID,
				Period:      play.Period.Number,
				Clock:       play.Clock.DisplayValue,
				PlayerID:    part.Athlete.ID,
				TeamID:      play.Team.Abbreviation,
				Description: play.Text,
				Scoring:     true,
				Stats:       stats,
			})
		}
	}
	return plays, nil
}

// statLine maps a participant's role on a scoring play to stat deltas.
// ESPN does not itemize stats per play, so yardage comes from the
// participant record and the score itself from the play type.
func (p participant) statLine(playType string) model.StatLine {
	kind := strings.ToLower(playType)
	role := strings.ToLower(p.Type)

	var s model.StatLine
	switch {
	case strings.Contains(kind, "rushing touchdown") && role == "scorer":
		s.RushTD = 1
		s.RushYards = p.Yards
	case strings.Contains(kind, "passing touchdown") && role == "scorer":
		s.RecTD = 1
		s.Receptions = 1
		s.RecYards = p.Yards
	case strings.Contains(kind, "passing touchdown") && role == "passer":
		s.PassTD = 1
		s.PassYards = p.Yards
	case strings.Contains(kind, "field goal") && role == "scorer":
		s.FGMade = 1
	case strings.Contains(kind, "extra point") && role == "scorer":
		s.XPMade = 1
	case strings.Contains(kind, "interception") && role == "scorer":
		// Defensive return touchdown; the thrower is charged separately
		// when ESPN lists them as a participant.
		s.RushTD = 1
	case strings.Contains(kind, "touchdown") && role == "passer":
		s.PassTD = 1
		s.PassYards = p.Yards
	case strings.Contains(kind, "touchdown") && role == "scorer":
		s.RushTD = 1
		s.RushYards = p.Yards
	}
	return s
}
