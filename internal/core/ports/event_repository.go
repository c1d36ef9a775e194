package ports

import (
	"context"

	"github.com/99minutos/order-management/internal/core/domain"
)

// EventRepository persists the order audit trail.
type EventRepository interface {
	// InsertEvent appends an event to the order_events collection.
	InsertEvent(ctx context.Context, event *domain.OrderEvent) error
	// ListByOrder returns the events of one order, oldest first.
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.OrderEvent, error)
}
