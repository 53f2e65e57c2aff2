package metrics_test

import (
	"testing"

	"github.com/okian/redzone/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline activity", func() {
			Convey("Then no helper panics", func() {
				So(func() {
					metrics.RecordProviderRequest("tank01", "success")
					metrics.RecordProviderRequestDuration("tank01", 42)
					metrics.RecordPollCycle("tank01", "ok")
					metrics.UpdateCircuitOpen("tank01", true)
					metrics.UpdateCircuitOpen("tank01", false)
					metrics.UpdateQuota("tank01", 10, 1000)
					metrics.UpdateRequestsThisMinute("tank01", 3)
					metrics.UpdateEmergencyStop(true)
					metrics.UpdateEmergencyStop(false)
					metrics.RecordEventNormalized("tank01")
					metrics.RecordEventAttributed()
					metrics.RecordEventDuplicate()
					metrics.RecordEventDropped("unmapped")
					metrics.RecordAttributionLatency(3)
					metrics.RecordMappingSync("completed")
					metrics.UpdateMappingCount(1800)
					metrics.RecordMappingLookupMiss()
					metrics.UpdateCacheEvents(12)
					metrics.UpdateCacheEventsForLeague("L1", 7)
					metrics.RecordCacheEviction()
					metrics.UpdateQueueSize(5)
					metrics.UpdateQueueCapacity(1000)
					metrics.RecordQueueEnqueue()
					metrics.RecordQueueDequeue()
					metrics.RecordQueueEnqueueError()
					metrics.RecordWorkerProcessingLatency(8)
					metrics.RecordWorkerError()
					metrics.RecordHTTPRequest("status", "GET", "200")
					metrics.RecordHTTPRequestDuration("status", "GET", "200", 2)
					metrics.UpdateSystemMemoryUsage(1 << 20)
					metrics.UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			reg := metrics.GetRegistry()

			Convey("Then gathered families include pipeline metrics", func() {
				So(reg, ShouldNotBeNil)
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
