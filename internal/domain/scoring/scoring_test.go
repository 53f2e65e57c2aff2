package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/redzone/internal/domain/model"
	scoring "github.com/okian/redzone/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBookPoints(t *testing.T) {
	Convey("Given a rule book with one custom league", t, func() {
		ctx := context.Background()
		book := scoring.NewBook(
			scoring.WithLeagueRules(map[string]scoring.Rules{
				"L1": {RushTD: 6, RushYards: 0.1},
			}),
		)

		Convey("When scoring a rushing touchdown for the custom league", func() {
			stats := model.StatLine{RushTD: 1, RushYards: 12}

			Convey("Then only that league's weights apply", func() {
				So(book.Points(ctx, "L1", stats), ShouldAlmostEqual, 7.2)
			})
		})

		Convey("When scoring for a league without configured rules", func() {
			stats := model.StatLine{Receptions: 1, RecYards: 20, RecTD: 1}

			Convey("Then the standard half-PPR table applies", func() {
				// 0.5 + 2.0 + 6.0
				So(book.Points(ctx, "unknown", stats), ShouldAlmostEqual, 8.5)
			})
		})

		Convey("When the same play is scored under two leagues", func() {
			book.SetLeagueRules("L2", scoring.Rules{RushTD: 4})
			stats := model.StatLine{RushTD: 1}

			Convey("Then each league applies its own weights", func() {
				So(book.Points(ctx, "L1", stats), ShouldAlmostEqual, 6)
				So(book.Points(ctx, "L2", stats), ShouldAlmostEqual, 4)
			})
		})

		Convey("When negative-weight stats occur", func() {
			stats := model.StatLine{PassYards: 25, Interception: 1}

			Convey("Then the penalty is applied", func() {
				So(book.Points(ctx, "unknown", stats), ShouldAlmostEqual, -1.0)
			})
		})
	})
}
