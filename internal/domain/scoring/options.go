package scoring

// DefaultLimit is the number of conditions returned when no limit is set.
const DefaultLimit = 5

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithLimit caps how many scored conditions are returned. Non-positive
// values are ignored.
func WithLimit(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.limit = n
		}
	}
}
