package dae

import "log/slog"

type options struct {
	orientation Orientation
	logger      *slog.Logger
}

// Option configures a Reducer.
type Option func(*options)

// WithOrientation selects the column (default) or row nilpotent pattern.
func WithOrientation(o Orientation) Option {
	return func(opts *options) { opts.orientation = o }
}

// WithLogger sets the logger for stage and iteration events. Nil keeps the
// default, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}
