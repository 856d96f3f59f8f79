package voronoi

import (
	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common/logx"
)

type options struct {
	logger *zap.Logger
}

// Option configures the loggers of the grid algorithms.
type Option func(*options)

// WithLogger routes diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logx.OrNop(o.logger)
	return o
}
