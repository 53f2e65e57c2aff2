package replay

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
)

// scriptedSource serves pre-scripted play-by-play, revealing a few more
// plays per game each round so successive polls see a live game advance.
type scriptedSource struct {
	mu       sync.Mutex
	name     string
	games    map[string][]model.RawPlay
	revealed map[string]int
}

func newScriptedSource(name string, games map[string][]model.RawPlay) *scriptedSource {
	revealed := make(map[string]int, len(games))
	for id := range games {
		revealed[id] = 0
	}
	return &scriptedSource{name: name, games: games, revealed: revealed}
}

func (s *scriptedSource) Name() string             { return s.name }
func (s *scriptedSource) Platform() model.Platform { return model.PlatformTank01 }

func (s *scriptedSource) ActiveGames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *scriptedSource) PlayByPlay(ctx context.Context, gameID string) ([]model.RawPlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plays := s.games[gameID]
	n := s.revealed[gameID]
	if n > len(plays) {
		n = len(plays)
	}
	out := make([]model.RawPlay, n)
	copy(out, plays[:n])
	return out, nil
}

// Reveal advances every game by n plays.
func (s *scriptedSource) Reveal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.revealed {
		s.revealed[id] += n
	}
}

// RevealAll exposes every remaining scripted play.
func (s *scriptedSource) RevealAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, plays := range s.games {
		s.revealed[id] = len(plays)
	}
}

// idleSource fills the primary provider slot without supplying games, so
// the backup path carries the whole replay.
type idleSource struct{}

func (idleSource) Name() string                                  { return "replay-idle" }
func (idleSource) Platform() model.Platform                      { return model.PlatformTank01 }
func (idleSource) ActiveGames(context.Context) ([]string, error) { return nil, nil }
func (idleSource) PlayByPlay(context.Context, string) ([]model.RawPlay, error) {
	return nil, nil
}

// scriptedDirectory serves the generated canonical players as the
// upstream player directory.
type scriptedDirectory struct {
	players []model.CanonicalPlayer
}

func (d *scriptedDirectory) ListPlayers(ctx context.Context) ([]model.CanonicalPlayer, error) {
	return d.players, nil
}

func (d *scriptedDirectory) LookupPlayer(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	for _, p := range d.players {
		if p.PlatformIDs[platform] == id {
			return p, nil
		}
	}
	return model.CanonicalPlayer{}, mapping.ErrNotFound
}
