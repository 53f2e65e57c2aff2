// Package scoring computes fantasy-point impact under per-league rules.
package scoring

// Option applies a configuration option to the Book.
type Option func(*Book)

// WithLeagueRules seeds per-league rule tables.
func WithLeagueRules(rules map[string]Rules) Option {
	return func(b *Book) {
		for league, r := range rules {
			b.leagues[league] = r
		}
	}
}

// WithDefaultRules replaces the fallback table used for unknown leagues.
func WithDefaultRules(r Rules) Option {
	return func(b *Book) {
		b.defaultRules = r
	}
}
