package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/order-management/internal/pkg/metrics"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

type auditService struct {
	events ports.EventRepository
	log    zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(events ports.EventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{events: events, log: log}
}

// Record persists a single order event. Failures are returned to the caller
// and not retried.
func (s *auditService) Record(ctx context.Context, event domain.OrderEvent) error {
	start := time.Now()
	action := string(event.Action)

	if err := s.events.InsertEvent(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues(action, "error").Inc()
		return fmt.Errorf("record %s event for %s: %w", action, event.OrderNumber, err)
	}

	metrics.AuditEventsTotal.WithLabelValues(action, "ok").Inc()
	metrics.AuditRecordDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	s.log.Debug().
		Int64("order_id", event.OrderID).
		Str("order_number", event.OrderNumber).
		Str("action", action).
		Msg("order event recorded")
	return nil
}
