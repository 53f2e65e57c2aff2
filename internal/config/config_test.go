package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/okian/redzone/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DedupeTTL, convey.ShouldEqual, 6*time.Hour)
			convey.So(cfg.LeagueCacheCapacity, convey.ShouldEqual, 50)
			convey.So(cfg.LiveHoursEnabled, convey.ShouldBeTrue)
			convey.So(cfg.LiveInterval, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.OffHoursInterval, convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.BreakerThreshold, convey.ShouldEqual, 5)
			convey.So(cfg.Scoring.RushTD, convey.ShouldEqual, 6)
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
		})
	})
}
