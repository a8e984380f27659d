package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusmerch/campusmerch-backend/internal/orders"
	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
)

const (
	defaultInterval  = time.Hour
	defaultBatchSize = 200
)

type totalsAuditor interface {
	AuditTotals(ctx context.Context, afterNumber int64, limit int) ([]orders.TotalsMismatch, int64, error)
}

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Auditor totalsAuditor
	Metrics *metrics.Metrics
}

// Service periodically recomputes stored order totals from their line
// items and reports any order whose stored total disagrees. Mismatches
// are never repaired here, only surfaced.
type Service struct {
	logg      *logger.Logger
	auditor   totalsAuditor
	m         *metrics.Metrics
	interval  time.Duration
	batchSize int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Auditor == nil {
		return nil, errors.New("auditor is required")
	}

	interval := params.Config.Audit.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	batch := params.Config.Audit.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &Service{
		logg:      params.Logger,
		auditor:   params.Auditor,
		m:         params.Metrics,
		interval:  interval,
		batchSize: batch,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Sweep once at startup so a fresh deploy does not wait a full
	// interval before its first report.
	if err := s.sweep(ctx); err != nil {
		s.logg.Error(ctx, "totals audit sweep failed", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "audit worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logg.Error(ctx, "totals audit sweep failed", err)
			}
		}
	}
}

// sweep pages through every order by order number and logs each
// mismatch it finds.
func (s *Service) sweep(ctx context.Context) error {
	start := time.Now()

	var (
		cursor  int64
		scanned int
		found   int
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		mismatches, last, err := s.auditor.AuditTotals(ctx, cursor, s.batchSize)
		if err != nil {
			s.m.ObserveJob("totals-audit", time.Since(start), err)
			return fmt.Errorf("audit totals after %d: %w", cursor, err)
		}

		for _, mismatch := range mismatches {
			fields := map[string]any{
				"order_number": mismatch.OrderNumber,
				"stored":       mismatch.Stored.String(),
				"recomputed":   mismatch.Recomputed.String(),
			}
			logCtx := s.logg.WithOrderID(s.logg.WithFields(ctx, fields), mismatch.OrderID.String())
			s.logg.Warn(logCtx, "order total mismatch detected")
		}
		found += len(mismatches)
		s.m.AddAuditMismatches(len(mismatches))

		if last == cursor {
			break
		}
		scanned += int(last - cursor)
		cursor = last
	}

	fields := map[string]any{"scanned": scanned, "mismatches": found}
	s.logg.Info(s.logg.WithFields(ctx, fields), "totals audit sweep complete")
	s.m.ObserveJob("totals-audit", time.Since(start), nil)
	return nil
}
