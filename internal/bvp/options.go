package bvp

import (
	"fmt"
	"log/slog"
)

const (
	DefaultMaxNodes = 2000
	DefaultTol      = 1e-3
)

// Options configures an algorithm at construction.
type Options struct {
	MaxNodes int
	Tol      float64
	BCTol    float64
	Logger   *slog.Logger
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MaxNodes: DefaultMaxNodes,
		Tol:      DefaultTol,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// WithMaxNodes bounds the refined mesh. The collocation system is factored
// densely, so memory grows with the square of nodes times variables.
func WithMaxNodes(n int) Option {
	return func(o *Options) { o.MaxNodes = n }
}

func WithTolerance(tol float64) Option {
	return func(o *Options) { o.Tol = tol }
}

// WithBCTolerance sets the boundary residual tolerance. Zero falls back to
// the collocation tolerance.
func WithBCTolerance(tol float64) Option {
	return func(o *Options) { o.BCTol = tol }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Apply folds opts over the defaults and validates the result.
func Apply(opts ...Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxNodes <= 2 {
		return o, fmt.Errorf("%w: got %d", ErrMaxNodes, o.MaxNodes)
	}
	if o.Tol <= 0 {
		return o, fmt.Errorf("bvp: tolerance must be positive, got %g", o.Tol)
	}
	if o.BCTol < 0 {
		return o, fmt.Errorf("bvp: boundary tolerance must not be negative, got %g", o.BCTol)
	}
	return o, nil
}
