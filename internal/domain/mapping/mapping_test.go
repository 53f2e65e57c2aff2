package mapping_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mapping "github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore is a minimal in-memory Store that can fail specific upsert
// batches to exercise partial-outage isolation.
type fakeStore struct {
	mu         sync.Mutex
	players    map[string]model.CanonicalPlayer
	byPlatform map[model.Platform]map[string]string
	failBatch  int // 1-based index of the upsert call to fail; 0 = never
	upserts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:    make(map[string]model.CanonicalPlayer),
		byPlatform: make(map[model.Platform]map[string]string),
	}
}

func (f *fakeStore) GetByPlatformID(_ context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ids, ok := f.byPlatform[platform]; ok {
		if canonical, ok := ids[id]; ok {
			return f.players[canonical], nil
		}
	}
	return model.CanonicalPlayer{}, mapping.ErrNotFound
}

func (f *fakeStore) Upsert(_ context.Context, players []model.CanonicalPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failBatch > 0 && f.upserts == f.failBatch {
		return errors.New("simulated store outage")
	}
	for _, p := range players {
		f.players[p.ID] = p
		for platform, id := range p.PlatformIDs {
			if f.byPlatform[platform] == nil {
				f.byPlatform[platform] = make(map[string]string)
			}
			f.byPlatform[platform][id] = p.ID
		}
	}
	return nil
}

func (f *fakeStore) Remove(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for _, id := range ids {
		p, ok := f.players[id]
		if !ok {
			continue
		}
		for platform, pid := range p.PlatformIDs {
			delete(f.byPlatform[platform], pid)
		}
		delete(f.players, id)
		removed++
	}
	return removed, nil
}

func (f *fakeStore) All(_ context.Context) ([]model.CanonicalPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CanonicalPlayer, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.players), nil
}

// fakeDirectory serves a static player list.
type fakeDirectory struct {
	players []model.CanonicalPlayer
	listErr error
}

func (f *fakeDirectory) ListPlayers(_ context.Context) ([]model.CanonicalPlayer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.players, nil
}

func (f *fakeDirectory) LookupPlayer(_ context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	for _, p := range f.players {
		if p.PlatformIDs[platform] == id {
			return p, nil
		}
	}
	return model.CanonicalPlayer{}, mapping.ErrNotFound
}

func directoryOf(n int) *fakeDirectory {
	players := make([]model.CanonicalPlayer, 0, n)
	for i := 0; i < n; i++ {
		id := "rz-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		players = append(players, model.CanonicalPlayer{
			ID:     id,
			Name:   "Player " + id,
			Team:   "KC",
			Active: true,
			PlatformIDs: map[model.Platform]string{
				model.PlatformTank01:  "t01-" + id,
				model.PlatformSleeper: "slp-" + id,
			},
			LastPlayed: time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		})
	}
	return &fakeDirectory{players: players}
}

func TestServiceSyncAll(t *testing.T) {
	Convey("Given a mapping service over a 10-player directory", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		dir := directoryOf(10)
		svc := mapping.NewService(store, dir, mapping.WithBatchSize(4))

		Convey("When syncing for the first time", func() {
			res, err := svc.SyncAll(ctx, false)

			Convey("Then every player is upserted and the record completed", func() {
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 10)
				So(res.Active, ShouldEqual, 10)
				count, _ := store.Count(ctx)
				So(count, ShouldEqual, 10)
				So(svc.LastSync().Status, ShouldEqual, mapping.SyncCompleted)
				So(svc.NeedsSync(), ShouldBeFalse)
			})
		})

		Convey("When syncing twice with identical upstream data", func() {
			_, err := svc.SyncAll(ctx, true)
			So(err, ShouldBeNil)
			first, _ := store.Count(ctx)

			_, err = svc.SyncAll(ctx, true)
			So(err, ShouldBeNil)

			Convey("Then the table size is unchanged", func() {
				second, _ := store.Count(ctx)
				So(second, ShouldEqual, first)
				So(second, ShouldEqual, 10)
			})
		})

		Convey("When a fresh sync exists and force is false", func() {
			_, err := svc.SyncAll(ctx, false)
			So(err, ShouldBeNil)
			upsertsAfterFirst := store.upserts

			res, err := svc.SyncAll(ctx, false)

			Convey("Then the second run is skipped", func() {
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 10)
				So(store.upserts, ShouldEqual, upsertsAfterFirst)
			})
		})

		Convey("When one batch fails mid-sync", func() {
			store.failBatch = 2 // 10 players / batch 4 => batches of 4,4,2
			res, err := svc.SyncAll(ctx, true)

			Convey("Then other batches still land and the record is failed", func() {
				So(err, ShouldNotBeNil)
				So(res.Total, ShouldEqual, 6)
				count, _ := store.Count(ctx)
				So(count, ShouldEqual, 6)
				So(svc.LastSync().Status, ShouldEqual, mapping.SyncFailed)
				So(svc.LastSync().FailedBatches, ShouldEqual, 1)
				So(svc.NeedsSync(), ShouldBeTrue)
			})
		})

		Convey("When the directory is unreachable", func() {
			dir.listErr = errors.New("upstream down")
			_, err := svc.SyncAll(ctx, true)

			Convey("Then the sync fails without touching existing mappings", func() {
				So(err, ShouldNotBeNil)
				So(svc.LastSync().Status, ShouldEqual, mapping.SyncFailed)
			})
		})
	})
}

func TestServiceFindByPlatformID(t *testing.T) {
	Convey("Given a synced mapping service", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		dir := directoryOf(3)
		svc := mapping.NewService(store, dir)
		_, err := svc.SyncAll(ctx, true)
		So(err, ShouldBeNil)

		Convey("When resolving a known platform id", func() {
			p, err := svc.FindByPlatformID(ctx, model.PlatformTank01, "t01-rz-a0")

			Convey("Then the canonical record carries every platform's id", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "rz-a0")
				So(p.PlatformIDs[model.PlatformSleeper], ShouldEqual, "slp-rz-a0")
			})
		})

		Convey("When resolving an id the store has never seen", func() {
			// Empty the store but keep the directory; lookup should fall
			// back to the directory and cache the result.
			fresh := newFakeStore()
			lazy := mapping.NewService(fresh, dir)

			p, err := lazy.FindByPlatformID(ctx, model.PlatformSleeper, "slp-rz-b0")
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, "rz-b0")

			Convey("Then the on-demand result is cached", func() {
				cached, err := fresh.GetByPlatformID(ctx, model.PlatformSleeper, "slp-rz-b0")
				So(err, ShouldBeNil)
				So(cached.ID, ShouldEqual, "rz-b0")
			})
		})

		Convey("When resolving an id nobody knows", func() {
			_, err := svc.FindByPlatformID(ctx, model.PlatformYahoo, "nope")

			Convey("Then ErrNotFound surfaces", func() {
				So(errors.Is(err, mapping.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceCleanupInactive(t *testing.T) {
	Convey("Given mappings with stale inactive players", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

		active := model.CanonicalPlayer{
			ID: "rz-active", Active: true,
			LastPlayed:  now.Add(-24 * time.Hour),
			PlatformIDs: map[model.Platform]string{model.PlatformTank01: "t01-active"},
		}
		benched := model.CanonicalPlayer{
			ID: "rz-benched", Active: false,
			LastPlayed:  now.Add(-2 * 24 * time.Hour),
			PlatformIDs: map[model.Platform]string{model.PlatformTank01: "t01-benched"},
		}
		gone := model.CanonicalPlayer{
			ID: "rz-gone", Active: false,
			LastPlayed:  now.Add(-90 * 24 * time.Hour),
			PlatformIDs: map[model.Platform]string{model.PlatformTank01: "t01-gone"},
		}
		So(store.Upsert(ctx, []model.CanonicalPlayer{active, benched, gone}), ShouldBeNil)

		svc := mapping.NewService(store, nil,
			mapping.WithRetention(8*7*24*time.Hour),
			mapping.WithClock(func() time.Time { return now }),
		)

		Convey("When cleaning up", func() {
			removed, err := svc.CleanupInactive(ctx)

			Convey("Then only long-inactive players are removed", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 1)
				_, err := store.GetByPlatformID(ctx, model.PlatformTank01, "t01-gone")
				So(errors.Is(err, mapping.ErrNotFound), ShouldBeTrue)
				_, err = store.GetByPlatformID(ctx, model.PlatformTank01, "t01-benched")
				So(err, ShouldBeNil)
			})
		})
	})
}
