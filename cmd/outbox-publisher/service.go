package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
)

const (
	defaultBatchSize = 50
	defaultPollMs    = 500
	maxBackoff       = 10 * time.Second
)

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, cause error) error
}

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// envelopeMessage is the wire shape pushed onto the Redis channel.
type envelopeMessage struct {
	ID            uuid.UUID       `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository outboxRepository
	Publisher  channelPublisher
	Metrics    *metrics.Metrics
}

// Service drains unpublished outbox rows and pushes them onto the
// configured Redis channel. Rows that fail to publish keep their
// attempt count and are retried on the next pass.
type Service struct {
	logg         *logger.Logger
	repo         outboxRepository
	publisher    channelPublisher
	m            *metrics.Metrics
	channel      string
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		logg:         params.Logger,
		repo:         params.Repository,
		publisher:    params.Publisher,
		m:            params.Metrics,
		channel:      params.Config.Outbox.Channel,
		batchSize:    batch,
		maxAttempts:  params.Config.Outbox.MaxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		} else {
			backoff = interval
		}

		// Drain immediately while there is work; sleep only when idle.
		if processed > 0 && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (int, error) {
	start := time.Now()

	events, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		s.m.ObserveJob("outbox-publisher", time.Since(start), err)
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	for _, event := range events {
		if s.maxAttempts > 0 && event.AttemptCount >= s.maxAttempts {
			fields := map[string]any{"event_id": event.ID.String(), "attempts": event.AttemptCount}
			s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event exceeded max attempts, skipping")
			continue
		}

		if err := s.publishEvent(ctx, event); err != nil {
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				s.logg.Error(ctx, "failed to record publish failure", markErr)
			}
			s.m.ObserveJob("outbox-publisher", time.Since(start), err)
			return published, err
		}

		if err := s.repo.MarkPublished(event.ID); err != nil {
			s.m.ObserveJob("outbox-publisher", time.Since(start), err)
			return published, fmt.Errorf("mark event %s published: %w", event.ID, err)
		}
		published++
	}

	fields := map[string]any{"published": published, "batch": len(events)}
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox batch published")
	s.m.ObserveJob("outbox-publisher", time.Since(start), nil)
	return published, nil
}

func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent) error {
	message, err := json.Marshal(envelopeMessage{
		ID:            event.ID,
		EventType:     string(event.EventType),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if err := s.publisher.Publish(ctx, s.channel, message); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
