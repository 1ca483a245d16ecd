package triggertree

import "log/slog"

// DefaultMaxExpansion is the default limit on the number of clauses an
// expression may expand to.
const DefaultMaxExpansion = 1000

// See the functional definitions below for the meaning.
type options struct {
	comparers    Comparers
	maxExpansion int
	logger       *slog.Logger
}

// Option configures a Tree.
type Option func(o *options)

// Given an array of Option functions, apply their effect
// on the options struct.
func applyOptions(o *options, opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithComparer orders values with the type tag (see TypeTag) using c.
// Comparers must be registered before triggers are added.
func WithComparer(tag string, c Comparer) Option {
	return func(o *options) {
		if o.comparers.Values == nil {
			o.comparers.Values = map[string]Comparer{}
		}
		o.comparers.Values[tag] = c
	}
}

// WithPredicateComparer relates opaque predicates calling the function fn using c.
func WithPredicateComparer(fn string, c PredicateComparer) Option {
	return func(o *options) {
		if o.comparers.Predicates == nil {
			o.comparers.Predicates = map[string]PredicateComparer{}
		}
		o.comparers.Predicates[fn] = c
	}
}

// WithMaxExpansion limits the number of clauses an expression may expand to.
// Adding an expression above the limit fails with expr.ErrExpansionLimit.
// A value <= 0 removes the limit.
// Default: DefaultMaxExpansion
func WithMaxExpansion(n int) Option {
	return func(o *options) {
		o.maxExpansion = n
	}
}

// WithLogger sets the logger used to report dropped clauses and tree changes
// at debug level.
// Default: discard
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
