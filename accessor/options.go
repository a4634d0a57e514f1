package accessor

import "go.uber.org/zap"

type Option func(*Accessor)

// WithLogger sets the logger receiving skipped-property warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStrict makes bulk population fail on the first property that cannot
// be set instead of logging it and moving on.
func WithStrict(strict bool) Option {
	return func(a *Accessor) { a.strict = strict }
}

// WithCaseSensitive controls property name matching. When disabled, names
// resolve case-insensitively: "Name", "NAME" and "name" are the same property.
func WithCaseSensitive(caseSensitive bool) Option {
	return func(a *Accessor) { a.caseSensitive = caseSensitive }
}
