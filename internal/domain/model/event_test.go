package model_test

import (
	"testing"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayIdentity(t *testing.T) {
	Convey("Given a normalized scoring event", t, func() {
		ev := model.NormalizedScoringEvent{
			PlayerID:    "rz-100",
			RawPlayerID: "t01-4017",
			Platform:    model.PlatformTank01,
			Type:        model.EventRushingTD,
			GameID:      "20250914_KC@NYJ",
			Period:      3,
			Clock:       "07:42",
			TS:          time.Now(),
			Provider:    "tank01",
		}

		Convey("Then the play identity is stable across re-deliveries", func() {
			So(ev.PlayIdentity(), ShouldEqual, "20250914_KC@NYJ|3|07:42|t01-4017|rushing_td")

			redelivered := ev
			redelivered.Provider = "espn"
			redelivered.PlayerID = "t01-4017" // unresolved this time
			So(redelivered.PlayIdentity(), ShouldEqual, ev.PlayIdentity())
		})

		Convey("Then a different play yields a different identity", func() {
			other := ev
			other.Clock = "07:41"
			So(other.PlayIdentity(), ShouldNotEqual, ev.PlayIdentity())
		})
	})
}

func TestStatLineIsZero(t *testing.T) {
	Convey("Given stat lines", t, func() {
		So(model.StatLine{}.IsZero(), ShouldBeTrue)
		So(model.StatLine{RushTD: 1}.IsZero(), ShouldBeFalse)
		So(model.StatLine{RecYards: 12}.IsZero(), ShouldBeFalse)
	})
}
