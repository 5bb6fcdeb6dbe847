package repository

// DefaultMemoryCapacity bounds a MemoryStore created without WithCapacity.
const DefaultMemoryCapacity = 10_000

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity sets how many entries are retained before the oldest are evicted.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}
