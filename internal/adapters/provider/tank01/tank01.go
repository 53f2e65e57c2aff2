// Package tank01 implements the primary play-by-play source, a
// RapidAPI-hosted live NFL stats API.
package tank01

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/redzone/internal/adapters/httpclient"
	"github.com/okian/redzone/internal/domain/model"
)

const (
	// DefaultBaseURL is the RapidAPI host for the live stats API.
	DefaultBaseURL = "https://tank01-nfl-live-in-game-real-time-statistics-nfl.p.rapidapi.com"

	rapidAPIHost = "tank01-nfl-live-in-game-real-time-statistics-nfl.p.rapidapi.com"

	name = "tank01"
)

// Source fetches live games and play-by-play over a rate-limited client.
// Player ids in emitted plays are provider-native.
type Source struct {
	client *httpclient.Client
	now    func() time.Time
}

// New creates a source. The API key and host headers ride on every request.
func New(apiKey string, opts ...Option) *Source {
	s := &Source{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = httpclient.New(
			httpclient.WithBaseURL(DefaultBaseURL),
			httpclient.WithProviderName(name),
			httpclient.WithHeader("x-rapidapi-key", apiKey),
			httpclient.WithHeader("x-rapidapi-host", rapidAPIHost),
		)
	}
	return s
}

func (s *Source) Name() string             { return name }
func (s *Source) Platform() model.Platform { return model.PlatformTank01 }

// RequestStats exposes the HTTP client's accounting for diagnostics.
func (s *Source) RequestStats() httpclient.Stats { return s.client.Stats() }

// scoresResponse is the RapidAPI envelope around the daily scoreboard. The
// body maps gameID to a per-game status record.
type scoresResponse struct {
	StatusCode int                  `json:"statusCode"`
	Body       map[string]gameScore `json:"body"`
}

type gameScore struct {
	GameID         string `json:"gameID"`
	GameStatus     string `json:"gameStatus"`
	GameStatusCode string `json:"gameStatusCode"`
}

// ActiveGames returns ids of games in progress today. Ids are returned in
// stable order so poll cycles visit games deterministically.
func (s *Source) ActiveGames(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("gameDate", s.now().UTC().Format("20060102"))
	params.Set("topPerformers", "false")

	body, err := s.client.Get(ctx, "/getNFLScoresOnly", params)
	if err != nil {
		return nil, fmt.Errorf("scores fetch: %w", err)
	}

	var resp scoresResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("scores decode: %w", err)
	}

	var live []string
	for id, game := range resp.Body {
		if game.live() {
			if game.GameID != "" {
				id = game.GameID
			}
			live = append(live, id)
		}
	}
	sort.Strings(live)
	return live, nil
}

func (g gameScore) live() bool {
	if g.GameStatusCode == "1" {
		return true
	}
	return strings.Contains(strings.ToLower(g.GameStatus), "live")
}

// boxScoreResponse carries the play-by-play list for one game.
type boxScoreResponse struct {
	StatusCode int `json:"statusCode"`
	Body       struct {
		GameID     string    `json:"gameID"`
		PlayByPlay []rawPlay `json:"allPlayByPlay"`
	} `json:"body"`
}

// rawPlay is one play as the provider reports it. Stat values arrive as
// strings and per-player stats are keyed by the provider's player id.
type rawPlay struct {
	PlayID      string               `json:"playID"`
	Period      string               `json:"playPeriod"`
	Clock       string               `json:"playClock"`
	Description string               `json:"play"`
	TeamID      string               `json:"teamID"`
	Scoring     bool                 `json:"isScoringPlay"`
	PlayerStats map[string]playStats `json:"playerStats"`
}

type playStats struct {
	Passing struct {
		PassYards string `json:"passYds"`
		PassTD    string `json:"passTD"`
		Int       string `json:"int"`
	} `json:"Passing"`
	Rushing struct {
		RushYards string `json:"rushYds"`
		RushTD    string `json:"rushTD"`
	} `json:"Rushing"`
	Receiving struct {
		Receptions string `json:"receptions"`
		RecYards   string `json:"recYds"`
		RecTD      string `json:"recTD"`
	} `json:"Receiving"`
	Kicking struct {
		FGMade string `json:"fgMade"`
		XPMade string `json:"xpMade"`
	} `json:"Kicking"`
	Defense struct {
		FumblesLost  string `json:"fumblesLost"`
		TwoPointMade string `json:"twoPointConversionMade"`
	} `json:"Defense"`
}

// PlayByPlay returns the full play list for one game in chronological
// order. A play crediting several players yields one entry per player so
// downstream attribution stays per-player.
func (s *Source) PlayByPlay(ctx context.Context, gameID string) ([]model.RawPlay, error) {
	params := url.Values{}
	params.Set("gameID", gameID)
	params.Set("playByPlay", "true")
	params.Set("fantasyPoints", "false")

	body, err := s.client.Get(ctx, "/getNFLBoxScore", params)
	if err != nil {
		return nil, fmt.Errorf("box score fetch %s: %w", gameID, err)
	}

	var resp boxScoreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("box score decode %s: %w", gameID, err)
	}

	plays := make([]model.RawPlay, 0, len(resp.Body.PlayByPlay))
	for _, raw := range resp.Body.PlayByPlay {
		period, _ := strconv.Atoi(strings.TrimPrefix(raw.Period, "Q"))

		playerIDs := make([]string, 0, len(raw.PlayerStats))
		for id := range raw.PlayerStats {
			playerIDs = append(playerIDs, id)
		}
		sort.Strings(playerIDs)

		for _, playerID := range playerIDs {
			stats := raw.PlayerStats[playerID].statLine()
			playID := raw.PlayID
			if len(playerIDs) > 1 {
				playID = raw.PlayID + ":" + playerID
			}
			plays = append(plays, model.RawPlay{
				PlayID:      playID,
				GameID:      gameID,
				Period:      period,
				Clock:       raw.Clock,
				PlayerID:    playerID,
				TeamID:      raw.TeamID,
				Description: raw.Description,
				Scoring:     raw.Scoring && !stats.IsZero(),
				Stats:       stats,
			})
		}
	}
	return plays, nil
}

func (p playStats) statLine() model.StatLine {
	return model.StatLine{
		PassYards:    num(p.Passing.PassYards),
		PassTD:       num(p.Passing.PassTD),
		Interception: num(p.Passing.Int),
		RushYards:    num(p.Rushing.RushYards),
		RushTD:       num(p.Rushing.RushTD),
		Receptions:   num(p.Receiving.Receptions),
		RecYards:     num(p.Receiving.RecYards),
		RecTD:        num(p.Receiving.RecTD),
		FGMade:       num(p.Kicking.FGMade),
		XPMade:       num(p.Kicking.XPMade),
		FumbleLost:   num(p.Defense.FumblesLost),
		TwoPointConv: num(p.Defense.TwoPointMade),
	}
}

// num parses the provider's string-typed stat values; blank means zero.
func num(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
