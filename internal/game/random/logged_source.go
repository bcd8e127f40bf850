package random

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
	draws  atomic.Int64
}

// NewLoggedSource creates a LoggedSource that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Float64 draws from the wrapped Source and logs the value with its ordinal.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	n := l.draws.Add(1)
	l.logger.Debug("random draw",
		zap.Int64("draw", n),
		zap.Float64("value", v),
	)
	return v
}

// Draws returns the number of values drawn so far.
func (l *LoggedSource) Draws() int64 { return l.draws.Load() }
