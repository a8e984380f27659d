package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
)

type stubOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    map[uuid.UUID]error
}

func (s *stubOutboxRepo) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *stubOutboxRepo) MarkPublished(id uuid.UUID) error {
	s.published = append(s.published, id)
	for i, event := range s.events {
		if event.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id uuid.UUID, cause error) error {
	if s.failed == nil {
		s.failed = map[uuid.UUID]error{}
	}
	s.failed[id] = cause
	return nil
}

type publishedMessage struct {
	channel string
	payload any
}

type stubPublisher struct {
	messages []publishedMessage
	err      error
}

func (s *stubPublisher) Publish(ctx context.Context, channel string, payload any) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, publishedMessage{channel: channel, payload: payload})
	return nil
}

func outboxEvent(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
	}
}

func newPublisherService(t *testing.T, repo *stubOutboxRepo, pub *stubPublisher) *Service {
	t.Helper()
	cfg := &config.Config{
		Outbox: config.OutboxConfig{
			Channel:     "campusmerch.events",
			BatchSize:   10,
			MaxAttempts: 3,
		},
	}
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Publisher:  pub,
		Metrics:    metrics.New(),
	})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	first := outboxEvent(t, enums.EventOrderCreated)
	second := outboxEvent(t, enums.EventOrderStatusChanged)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{first, second}}
	pub := &stubPublisher{}
	svc := newPublisherService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published, got %d", published)
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.messages))
	}
	if pub.messages[0].channel != "campusmerch.events" {
		t.Fatalf("unexpected channel %s", pub.messages[0].channel)
	}

	raw, ok := pub.messages[0].payload.([]byte)
	if !ok {
		t.Fatalf("expected marshalled bytes, got %T", pub.messages[0].payload)
	}
	var msg envelopeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ID != first.ID || msg.EventType != string(enums.EventOrderCreated) {
		t.Fatalf("unexpected message %+v", msg)
	}

	if len(repo.published) != 2 {
		t.Fatalf("expected both events marked published, got %d", len(repo.published))
	}
}

func TestProcessBatchRecordsFailures(t *testing.T) {
	event := outboxEvent(t, enums.EventPaymentRecorded)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &stubPublisher{err: errors.New("redis down")}
	svc := newPublisherService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err == nil {
		t.Fatal("expected publish error")
	}
	if published != 0 {
		t.Fatalf("expected 0 published, got %d", published)
	}
	if repo.failed[event.ID] == nil {
		t.Fatal("expected failure to be recorded against the event")
	}
	if len(repo.published) != 0 {
		t.Fatal("failed event must not be marked published")
	}
}

func TestProcessBatchSkipsExhaustedEvents(t *testing.T) {
	exhausted := outboxEvent(t, enums.EventOrderCreated)
	exhausted.AttemptCount = 3
	fresh := outboxEvent(t, enums.EventOrderStatusChanged)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{exhausted, fresh}}
	pub := &stubPublisher{}
	svc := newPublisherService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if published != 1 {
		t.Fatalf("expected 1 published, got %d", published)
	}
	if len(repo.published) != 1 || repo.published[0] != fresh.ID {
		t.Fatalf("expected only the fresh event published, got %+v", repo.published)
	}
}

func TestProcessBatchEmptyIsNoop(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	svc := newPublisherService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if published != 0 || len(pub.messages) != 0 {
		t.Fatal("empty batch must not publish")
	}
}
