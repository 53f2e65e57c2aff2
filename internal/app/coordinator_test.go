package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/redzone/internal/adapters/provider"
	service "github.com/okian/redzone/internal/app"
)

type fakePoller struct {
	mu         sync.Mutex
	name       string
	polling    bool
	forwarding bool
	stopped    bool
	manualErr  error
	manual     int
	circuits   int
	quotas     int
}

func (f *fakePoller) StartPolling(ctx context.Context, interval time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return provider.ErrEmergencyStopped
	}
	f.polling = true
	return nil
}

func (f *fakePoller) StopPolling() {
	f.mu.Lock()
	f.polling = false
	f.mu.Unlock()
}

func (f *fakePoller) ManualPoll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return provider.ErrEmergencyStopped
	}
	f.manual++
	return f.manualErr
}

func (f *fakePoller) SetForwarding(enabled bool) {
	f.mu.Lock()
	f.forwarding = enabled
	f.mu.Unlock()
}

func (f *fakePoller) EmergencyStop() {
	f.mu.Lock()
	f.stopped = true
	f.polling = false
	f.mu.Unlock()
}

func (f *fakePoller) ResetEmergencyStop() {
	f.mu.Lock()
	f.stopped = false
	f.mu.Unlock()
}

func (f *fakePoller) ResetCircuit() { f.mu.Lock(); f.circuits++; f.mu.Unlock() }
func (f *fakePoller) ResetQuota()   { f.mu.Lock(); f.quotas++; f.mu.Unlock() }

func (f *fakePoller) State() provider.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return provider.State{
		Provider:         f.name,
		Polling:          f.polling,
		Forwarding:       f.forwarding,
		EmergencyStopped: f.stopped,
	}
}

func TestCoordinatorFailover(t *testing.T) {
	Convey("Given a coordinator over a primary and a backup", t, func() {
		ctx := context.Background()
		primary := &fakePoller{name: "tank01"}
		backup := &fakePoller{name: "espn"}
		coord := service.NewCoordinator(primary, backup, nil)

		Convey("When started", func() {
			So(coord.Start(ctx), ShouldBeNil)

			Convey("Then both pollers run and only the backup forwards", func() {
				So(coord.PrimaryLive(), ShouldBeFalse)
				So(backup.State().Polling, ShouldBeTrue)
				So(backup.State().Forwarding, ShouldBeTrue)
				So(primary.State().Polling, ShouldBeTrue)
				So(primary.State().Forwarding, ShouldBeFalse)
			})

			Convey("And enabling primary live events hands over forwarding", func() {
				So(coord.EnablePrimaryLiveEvents(ctx), ShouldBeNil)

				So(coord.PrimaryLive(), ShouldBeTrue)
				So(primary.State().Polling, ShouldBeTrue)
				So(primary.State().Forwarding, ShouldBeTrue)
				So(backup.State().Polling, ShouldBeTrue)
				So(backup.State().Forwarding, ShouldBeFalse)

				Convey("And enabling again is a no-op", func() {
					So(coord.EnablePrimaryLiveEvents(ctx), ShouldBeNil)
				})

				Convey("And disabling hands forwarding back with both still hot", func() {
					So(coord.DisablePrimaryLiveEvents(ctx), ShouldBeNil)
					So(coord.PrimaryLive(), ShouldBeFalse)
					So(primary.State().Polling, ShouldBeTrue)
					So(primary.State().Forwarding, ShouldBeFalse)
					So(backup.State().Polling, ShouldBeTrue)
					So(backup.State().Forwarding, ShouldBeTrue)
				})
			})
		})
	})
}

func TestCoordinatorManualPoll(t *testing.T) {
	Convey("Given one healthy and one failing poller", t, func() {
		ctx := context.Background()
		primary := &fakePoller{name: "tank01", manualErr: errors.New("quota exceeded")}
		backup := &fakePoller{name: "espn"}
		coord := service.NewCoordinator(primary, backup, nil)

		Convey("When both are polled manually", func() {
			err := coord.ManualPollAll(ctx)

			Convey("Then the healthy poller still ran and the error surfaces", func() {
				So(err, ShouldNotBeNil)
				So(primary.manual, ShouldEqual, 1)
				So(backup.manual, ShouldEqual, 1)
			})
		})
	})
}

func TestCoordinatorEmergencyStop(t *testing.T) {
	Convey("Given a running coordinator", t, func() {
		ctx := context.Background()
		primary := &fakePoller{name: "tank01"}
		backup := &fakePoller{name: "espn"}
		coord := service.NewCoordinator(primary, backup, nil)
		So(coord.Start(ctx), ShouldBeNil)

		Convey("When the emergency stop engages", func() {
			coord.EmergencyStopAll()

			Convey("Then both pollers are stopped and manual polls refuse", func() {
				So(coord.EmergencyStopped(), ShouldBeTrue)
				So(primary.State().EmergencyStopped, ShouldBeTrue)
				So(backup.State().EmergencyStopped, ShouldBeTrue)
				So(coord.ManualPollAll(ctx), ShouldNotBeNil)
			})

			Convey("And resetting resumes both pollers", func() {
				So(coord.ResetEmergencyStop(ctx), ShouldBeNil)
				So(coord.EmergencyStopped(), ShouldBeFalse)
				So(primary.State().Polling, ShouldBeTrue)
				So(backup.State().Polling, ShouldBeTrue)
			})
		})
	})
}

func TestCoordinatorResets(t *testing.T) {
	Convey("Given a coordinator", t, func() {
		primary := &fakePoller{name: "tank01"}
		backup := &fakePoller{name: "espn"}
		coord := service.NewCoordinator(primary, backup, nil)

		Convey("When circuits and quotas are reset", func() {
			coord.ResetCircuits()
			coord.ResetQuotas()

			Convey("Then every poller saw both resets", func() {
				So(primary.circuits, ShouldEqual, 1)
				So(backup.circuits, ShouldEqual, 1)
				So(primary.quotas, ShouldEqual, 1)
				So(backup.quotas, ShouldEqual, 1)
			})
		})

		Convey("When status is requested", func() {
			status := coord.Status()

			Convey("Then both providers report under their names", func() {
				So(status, ShouldContainKey, "tank01")
				So(status, ShouldContainKey, "espn")
			})
		})
	})
}
