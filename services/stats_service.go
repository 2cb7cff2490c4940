package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"minibackends/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

const DefaultStatsBuffer = 1000

// StatsService persists access events off the request path.
type StatsService struct {
	db     *gorm.DB
	logger *slog.Logger
	events chan models.AccessEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewStatsService(db *gorm.DB, logger *slog.Logger, buffer int) *StatsService {
	if buffer < 1 {
		buffer = DefaultStatsBuffer
	}
	return &StatsService{
		db:     db,
		logger: logger,
		events: make(chan models.AccessEvent, buffer),
		done:   make(chan struct{}),
	}
}

// Run writes queued events until Stop is called or ctx is cancelled.
func (s *StatsService) Run(ctx context.Context) {
	defer close(s.done)
	s.logger.Info("stats worker starting")

	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				s.logger.Info("stats worker stopped")
				return
			}
			if err := s.Record(context.Background(), event); err != nil {
				s.logger.Error("failed to record access event", "url_item_id", event.LinkID, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("stats worker cancelled", "pending", len(s.events))
			return
		}
	}
}

// RecordAsync queues event without blocking. The event is dropped when the
// buffer is full or the service is stopped.
func (s *StatsService) RecordAsync(event models.AccessEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("stats worker stopped, dropping access event", "url_item_id", event.LinkID)
		return
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("stats channel full, dropping access event", "url_item_id", event.LinkID)
	}
}

// Stop closes intake and waits for Run to drain the queue.
func (s *StatsService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stats worker did not drain: %w", ctx.Err())
	}
}

// Record enriches and stores one event synchronously.
func (s *StatsService) Record(ctx context.Context, event models.AccessEvent) error {
	enrich(&event)
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to insert access event: %w", err)
	}
	return nil
}

func enrich(event *models.AccessEvent) {
	if event.AccessedAt.IsZero() {
		event.AccessedAt = time.Now().UTC()
	}

	ua := user_agent.New(event.UserAgent)
	name, version := ua.Browser()
	event.Browser = strings.TrimSpace(name + " " + version)
	event.OS = ua.OS()

	switch {
	case ua.Bot():
		event.DeviceType = "bot"
	case ua.Mobile():
		event.DeviceType = "mobile"
	default:
		event.DeviceType = "desktop"
	}
}
