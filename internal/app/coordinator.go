package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// handoverDelay is the pause between stopping both pollers and restarting
// them when forwarding flips, so requests in flight on the previous
// forwarder drain first.
const handoverDelay = 200 * time.Millisecond

// PollerControl is the surface the coordinator drives on each poller.
// *provider.Poller satisfies it.
type PollerControl interface {
	StartPolling(ctx context.Context, interval time.Duration) error
	StopPolling()
	ManualPoll(ctx context.Context) error
	SetForwarding(enabled bool)
	EmergencyStop()
	ResetEmergencyStop()
	ResetCircuit()
	ResetQuota()
	State() provider.State
}

// Coordinator runs the hybrid primary/backup source pair. Both pollers
// run concurrently, the backup on a longer interval; exactly one source
// forwards events at a time (the quota-limited primary while live events
// are enabled, the free backup otherwise) and the other stays hot with
// its events suppressed, so failover needs no cold start.
type Coordinator struct {
	primary PollerControl
	backup  PollerControl

	mu             sync.Mutex
	primaryLive    bool
	emergencyState bool

	log logger.Logger
}

// NewCoordinator creates a coordinator over a primary and a backup poller.
// The backup starts as the forwarding source until live events are enabled.
func NewCoordinator(primary, backup PollerControl, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Get().Named("coordinator")
	}
	return &Coordinator{
		primary: primary,
		backup:  backup,
		log:     log,
	}
}

// Start begins polling on both sources. Only the forwarding source's
// events flow downstream.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	primaryLive := c.primaryLive
	c.mu.Unlock()

	c.primary.SetForwarding(primaryLive)
	c.backup.SetForwarding(!primaryLive)
	if err := c.primary.StartPolling(ctx, 0); err != nil {
		return err
	}
	return c.backup.StartPolling(ctx, 0)
}

// Stop halts both pollers.
func (c *Coordinator) Stop() {
	c.primary.StopPolling()
	c.backup.StopPolling()
}

// EnablePrimaryLiveEvents switches forwarding to the primary source.
// Both pollers keep running; each keeps its seen-play markers, so a
// later switch back resumes without replaying old plays.
func (c *Coordinator) EnablePrimaryLiveEvents(ctx context.Context) error {
	c.mu.Lock()
	if c.primaryLive {
		c.mu.Unlock()
		return nil
	}
	c.primaryLive = true
	c.mu.Unlock()

	if err := c.handover(ctx, true); err != nil {
		return err
	}
	c.log.Info(ctx, "primary live events enabled")
	return nil
}

// DisablePrimaryLiveEvents switches forwarding back to the backup source.
// The primary keeps polling hot with its events suppressed.
func (c *Coordinator) DisablePrimaryLiveEvents(ctx context.Context) error {
	c.mu.Lock()
	if !c.primaryLive {
		c.mu.Unlock()
		return nil
	}
	c.primaryLive = false
	c.mu.Unlock()

	if err := c.handover(ctx, false); err != nil {
		return err
	}
	c.log.Info(ctx, "primary live events disabled, backup forwarding")
	return nil
}

// handover restarts both pollers around a forwarding flip. The pause lets
// in-flight fetches from the previous forwarder drain, so both sources
// never forward at the same moment; dedup catches any play that lands
// inside the gap.
func (c *Coordinator) handover(ctx context.Context, primaryForwards bool) error {
	c.primary.StopPolling()
	c.backup.StopPolling()

	c.primary.SetForwarding(primaryForwards)
	c.backup.SetForwarding(!primaryForwards)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(handoverDelay):
	}

	if err := c.primary.StartPolling(ctx, 0); err != nil {
		return err
	}
	return c.backup.StartPolling(ctx, 0)
}

// PrimaryLive reports whether the primary source is the forwarding one.
func (c *Coordinator) PrimaryLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primaryLive
}

// ManualPollAll polls both sources immediately. A failure on one source
// does not prevent the other's poll; all failures are joined.
func (c *Coordinator) ManualPollAll(ctx context.Context) error {
	var errs []error
	if err := c.primary.ManualPoll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.backup.ManualPoll(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EmergencyStopAll engages the kill switch on both pollers.
func (c *Coordinator) EmergencyStopAll() {
	c.mu.Lock()
	c.emergencyState = true
	c.mu.Unlock()

	c.primary.EmergencyStop()
	c.backup.EmergencyStop()
	metrics.UpdateEmergencyStop(true)
	c.log.Warn(context.Background(), "emergency stop engaged on all providers")
}

// ResetEmergencyStop clears the kill switch and resumes both pollers.
// Circuit breakers keep their state; ResetCircuits is separate.
func (c *Coordinator) ResetEmergencyStop(ctx context.Context) error {
	c.mu.Lock()
	c.emergencyState = false
	c.mu.Unlock()

	c.primary.ResetEmergencyStop()
	c.backup.ResetEmergencyStop()
	metrics.UpdateEmergencyStop(false)
	c.log.Info(ctx, "emergency stop reset")
	return c.Start(ctx)
}

// EmergencyStopped reports whether the kill switch is engaged.
func (c *Coordinator) EmergencyStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emergencyState
}

// ResetCircuits closes both circuit breakers.
func (c *Coordinator) ResetCircuits() {
	c.primary.ResetCircuit()
	c.backup.ResetCircuit()
}

// ResetQuotas clears both daily quota counters.
func (c *Coordinator) ResetQuotas() {
	c.primary.ResetQuota()
	c.backup.ResetQuota()
}

// Status returns both pollers' snapshots keyed by provider name.
func (c *Coordinator) Status() map[string]provider.State {
	primary := c.primary.State()
	backup := c.backup.State()
	return map[string]provider.State{
		primary.Provider: primary,
		backup.Provider:  backup,
	}
}
