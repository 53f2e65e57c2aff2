// Package scoring computes fantasy-point impact from raw stat deltas under
// per-league scoring rules.
package scoring

import (
	"context"
	"sync"

	"github.com/okian/redzone/internal/domain/model"
)

// Rules maps each stat to the points one unit of it is worth in a league.
// Yardage weights are per yard; the rest are per occurrence.
type Rules struct {
	PassYards    float64 `koanf:"pass_yards" json:"pass_yards"`
	PassTD       float64 `koanf:"pass_td" json:"pass_td"`
	Interception float64 `koanf:"interception" json:"interception"`
	RushYards    float64 `koanf:"rush_yards" json:"rush_yards"`
	RushTD       float64 `koanf:"rush_td" json:"rush_td"`
	Receptions   float64 `koanf:"receptions" json:"receptions"`
	RecYards     float64 `koanf:"rec_yards" json:"rec_yards"`
	RecTD        float64 `koanf:"rec_td" json:"rec_td"`
	FGMade       float64 `koanf:"fg_made" json:"fg_made"`
	XPMade       float64 `koanf:"xp_made" json:"xp_made"`
	FumbleLost   float64 `koanf:"fumble_lost" json:"fumble_lost"`
	TwoPointConv float64 `koanf:"two_point_conv" json:"two_point_conv"`
}

// StandardRules returns half-PPR defaults used when a league supplies none.
func StandardRules() Rules {
	return Rules{
		PassYards:    0.04,
		PassTD:       4,
		Interception: -2,
		RushYards:    0.1,
		RushTD:       6,
		Receptions:   0.5,
		RecYards:     0.1,
		RecTD:        6,
		FGMade:       3,
		XPMade:       1,
		FumbleLost:   -2,
		TwoPointConv: 2,
	}
}

// Apply returns the point value of a stat line under these rules.
func (r Rules) Apply(s model.StatLine) float64 {
	return s.PassYards*r.PassYards +
		s.PassTD*r.PassTD +
		s.Interception*r.Interception +
		s.RushYards*r.RushYards +
		s.RushTD*r.RushTD +
		s.Receptions*r.Receptions +
		s.RecYards*r.RecYards +
		s.RecTD*r.RecTD +
		s.FGMade*r.FGMade +
		s.XPMade*r.XPMade +
		s.FumbleLost*r.FumbleLost +
		s.TwoPointConv*r.TwoPointConv
}

// Engine resolves the rules for a league and scores stat lines under them.
type Engine interface {
	// Points computes the fantasy-point delta of stats under leagueID's rules.
	Points(ctx context.Context, leagueID string, stats model.StatLine) float64

	// Rules returns the effective rules for a league.
	Rules(ctx context.Context, leagueID string) Rules
}

// Book holds per-league rules with a fallback default. The external
// configuration layer supplies league rules; leagues without an entry score
// under the default table.
type Book struct {
	mu           sync.RWMutex
	leagues      map[string]Rules
	defaultRules Rules
}

// NewBook creates a rule book with configuration options.
func NewBook(opts ...Option) *Book {
	b := &Book{
		leagues:      make(map[string]Rules),
		defaultRules: StandardRules(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Points computes the point delta of stats under leagueID's rules.
func (b *Book) Points(ctx context.Context, leagueID string, stats model.StatLine) float64 {
	return b.Rules(ctx, leagueID).Apply(stats)
}

// Rules returns the effective rules for a league.
func (b *Book) Rules(_ context.Context, leagueID string) Rules {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if r, ok := b.leagues[leagueID]; ok {
		return r
	}
	return b.defaultRules
}

// SetLeagueRules installs or replaces the rules for one league.
func (b *Book) SetLeagueRules(leagueID string, r Rules) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leagues[leagueID] = r
}
