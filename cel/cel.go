package cel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ezachrisen/triggertree/expr"
	celgo "github.com/google/cel-go/cel"
	"github.com/karlseguin/ccache/v2"
)

var (
	// CacheTime is how long parsed expressions and programs stay cached
	// after their last use.
	CacheTime = time.Hour

	// ErrNotBoolean is returned when a predicate does not evaluate to a boolean.
	ErrNotBoolean = errors.New("predicate did not return true or false")

	// ErrUnexpectedProgram is returned when Evaluate is given a program
	// that was not produced by Compile.
	ErrUnexpectedProgram = errors.New("unexpected program type")
)

// Evaluator parses trigger expressions written in CEL and evaluates the
// predicates a trigger tree cannot reason about itself.
//
// Parsed expressions and compiled programs are cached, and an Evaluator is
// safe for concurrent use.
type Evaluator struct {
	env   *celgo.Env
	cache *ccache.Cache

	// set when the cache was created by NewEvaluator
	ownCache bool
	stop     sync.Once

	hits   int64
	misses int64
}

type options struct {
	envOpts   []celgo.EnvOption
	cache     *ccache.Cache
	cacheSize int64
}

// Option configures an Evaluator.
type Option func(o *options)

// WithEnvOptions adds options to the CEL environment, such as custom
// functions or declarations.
func WithEnvOptions(opts ...celgo.EnvOption) Option {
	return func(o *options) {
		o.envOpts = append(o.envOpts, opts...)
	}
}

// WithCache shares a cache between evaluators. Entries are keyed by source,
// so evaluators sharing a cache must use equivalent environments.
func WithCache(c *ccache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithCacheSize sets the maximum number of cached entries.
// Default: 10,000
func WithCacheSize(n int64) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// NewEvaluator creates a CEL environment with the standard library and the
// given options.
func NewEvaluator(opts ...Option) (*Evaluator, error) {
	o := options{cacheSize: 10_000}
	for _, opt := range opts {
		opt(&o)
	}
	// Macro calls are needed to unparse opaque predicates using them.
	envOpts := append([]celgo.EnvOption{celgo.EnableMacroCallTracking()}, o.envOpts...)
	env, err := celgo.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing expression env: %w", err)
	}
	ev := &Evaluator{env: env, cache: o.cache}
	if ev.cache == nil {
		ev.cache = ccache.New(ccache.Configure().MaxSize(o.cacheSize))
		ev.ownCache = true
	}
	return ev, nil
}

// Stop stops the background worker of the evaluator's cache. A cache passed
// in with WithCache is left running. The evaluator must not be used after
// Stop.
func (e *Evaluator) Stop() {
	e.stop.Do(func() {
		if e.ownCache {
			e.cache.Stop()
		}
	})
}

// Parse parses source and converts it to an expression. Comparisons of a
// variable with a literal become expr.Compare, and everything the tree cannot
// reason about becomes an expr.Call.
func (e *Evaluator) Parse(source string) (expr.Node, error) {
	ast, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	return convert(ast)
}

// Compile prepares a CEL program for an opaque predicate.
func (e *Evaluator) Compile(call *expr.Call) (any, error) {
	key := "prg:" + call.Source
	if cached := e.cache.Get(key); cached != nil {
		cached.Extend(CacheTime)
		atomic.AddInt64(&e.hits, 1)
		return cached.Value(), nil
	}
	ast, err := e.parse(call.Source)
	if err != nil {
		return nil, err
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	e.cache.Set(key, prg, CacheTime)
	atomic.AddInt64(&e.misses, 1)
	return prg, nil
}

// Evaluate runs a program returned by Compile against the data.
// Variables missing from the data make evaluation fail.
func (e *Evaluator) Evaluate(data map[string]any, program any) (bool, error) {
	prg, ok := program.(celgo.Program)
	if !ok {
		return false, fmt.Errorf("%w: %T", ErrUnexpectedProgram, program)
	}
	out, _, err := prg.Eval(data)
	if err != nil {
		return false, fmt.Errorf("evaluating: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %v", ErrNotBoolean, out.Value())
	}
	return b, nil
}

// Hits returns the number of cache hits for compiled programs and parsed
// expressions.
func (e *Evaluator) Hits() int64 {
	return atomic.LoadInt64(&e.hits)
}

// Misses returns the number of cache misses.
func (e *Evaluator) Misses() int64 {
	return atomic.LoadInt64(&e.misses)
}

func (e *Evaluator) parse(source string) (*celgo.Ast, error) {
	key := "ast:" + source
	if cached := e.cache.Get(key); cached != nil {
		cached.Extend(CacheTime)
		atomic.AddInt64(&e.hits, 1)
		return cached.Value().(*celgo.Ast), nil
	}
	ast, issues := e.env.Parse(source)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	e.cache.Set(key, ast, CacheTime)
	atomic.AddInt64(&e.misses, 1)
	return ast, nil
}
