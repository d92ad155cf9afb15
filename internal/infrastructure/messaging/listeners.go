package messaging

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LISTENERS
// ══════════════════════════════════════════════════════════════════════════════

// AuditListener writes every domain event to the structured log. It is
// the hub's audit trail: who registered, who recorded scores, which
// guidance requests failed.
type AuditListener struct {
	logger *slog.Logger
}

// NewAuditListener creates a new audit listener.
func NewAuditListener(logger *slog.Logger) *AuditListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditListener{logger: logger.With("component", "audit")}
}

// Handle implements shared.EventHandler.
func (l *AuditListener) Handle(event shared.Event) error {
	l.logger.Info("domain event",
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
		"payload", event.Payload(),
	)
	return nil
}

// GuidanceInvalidator drops a student's cached guidance text when their
// data changes. A new score row makes the cached advice stale even
// though the cache key's subject-set version has not moved.
type GuidanceInvalidator struct {
	cache   GuidanceTextInvalidator
	logger  *slog.Logger
	timeout time.Duration
}

// GuidanceTextInvalidator is the slice of the guidance cache this
// listener needs.
type GuidanceTextInvalidator interface {
	Invalidate(ctx context.Context, studentID string) error
}

// NewGuidanceInvalidator creates a new guidance cache invalidation listener.
func NewGuidanceInvalidator(cache GuidanceTextInvalidator, logger *slog.Logger) *GuidanceInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuidanceInvalidator{
		cache:   cache,
		logger:  logger.With("component", "guidance_invalidator"),
		timeout: 5 * time.Second,
	}
}

// Handle implements shared.EventHandler.
func (l *GuidanceInvalidator) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.cache.Invalidate(ctx, event.AggregateID()); err != nil {
		// Stale text expires on its own TTL; log and move on.
		l.logger.Warn("guidance cache invalidation failed",
			"student_id", event.AggregateID(),
			"error", err,
		)
	}
	return nil
}

// FailureMonitor counts guidance generation failures so operators can
// tell a flaky upstream from a dead one.
type FailureMonitor struct {
	logger   *slog.Logger
	failures atomic.Int64
}

// NewFailureMonitor creates a new failure monitor.
func NewFailureMonitor(logger *slog.Logger) *FailureMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailureMonitor{logger: logger.With("component", "failure_monitor")}
}

// Handle implements shared.EventHandler.
func (m *FailureMonitor) Handle(event shared.Event) error {
	total := m.failures.Add(1)
	m.logger.Warn("guidance generation failed",
		"student_id", event.AggregateID(),
		"reason", event.Payload()["reason"],
		"total_failures", total,
	)
	return nil
}

// Failures returns the total failure count since startup.
func (m *FailureMonitor) Failures() int64 {
	return m.failures.Load()
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// RegisterListeners wires the standard listener set onto the bus.
// guidanceCache may be nil when caching is disabled.
func RegisterListeners(bus shared.EventBus, guidanceCache GuidanceTextInvalidator, logger *slog.Logger) (*FailureMonitor, error) {
	if err := bus.SubscribeAll(NewAuditListener(logger)); err != nil {
		return nil, err
	}

	if guidanceCache != nil {
		invalidator := NewGuidanceInvalidator(guidanceCache, logger)
		if err := bus.Subscribe(shared.EventScoreRecorded, invalidator); err != nil {
			return nil, err
		}
		if err := bus.Subscribe(shared.EventProfileUpdated, invalidator); err != nil {
			return nil, err
		}
	}

	monitor := NewFailureMonitor(logger)
	if err := bus.Subscribe(shared.EventGuidanceFailed, monitor); err != nil {
		return nil, err
	}

	return monitor, nil
}
