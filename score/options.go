package score

// Option configures Score and Rank.
type Option func(*options)

type options struct {
	penalty   float64
	threshold float64
	limit     int
}

func newOptions(opts []Option) options {
	o := options{penalty: DefaultPenalty}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPenalty sets the decay penalty. Higher values discount partial matches faster.
// Default: 0.5.
func WithPenalty(p float64) Option {
	return func(o *options) {
		if p >= 0 {
			o.penalty = p
		}
	}
}

// WithThreshold makes Rank drop matches scoring below t. Score ignores it.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithLimit caps the number of matches Rank returns. Zero or less means no cap.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}
