package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PeriodicCheck runs a health check immediately on Start and then on every
// interval, reporting each outcome. It satisfies Service.
type PeriodicCheck struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	check    func(ctx context.Context, timeout time.Duration) error
	report   func(healthy bool)
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPeriodicCheck creates a PeriodicCheck.
//
// Precondition: interval and timeout must be > 0; check, report, and logger must be non-nil.
func NewPeriodicCheck(name string, interval, timeout time.Duration, check func(context.Context, time.Duration) error, report func(bool), logger *zap.Logger) *PeriodicCheck {
	ctx, cancel := context.WithCancel(context.Background())
	return &PeriodicCheck{
		name:     name,
		interval: interval,
		timeout:  timeout,
		check:    check,
		report:   report,
		logger:   logger.Named("check").With(zap.String("check", name)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start checks once, then every interval until Stop is called.
func (p *PeriodicCheck) Start() error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if p.ctx.Err() != nil {
			return nil
		}
		p.runCheck()
		select {
		case <-p.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Stop ends the check loop.
func (p *PeriodicCheck) Stop() {
	p.cancel()
}

func (p *PeriodicCheck) runCheck() {
	if err := p.check(p.ctx, p.timeout); err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn("health check failed", zap.Error(err))
		p.report(false)
		return
	}
	p.report(true)
}
