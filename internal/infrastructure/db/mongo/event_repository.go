package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{col: db.Collection(collectionEvents)}
}

type eventDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OrderID     int64              `bson:"order_id"`
	OrderNumber string             `bson:"order_number"`
	Action      string             `bson:"action"`
	From        string             `bson:"from_status,omitempty"`
	To          string             `bson:"to_status"`
	ActorID     int64              `bson:"actor_id"`
	Timestamp   time.Time          `bson:"timestamp"`
	RecordedAt  time.Time          `bson:"recorded_at"`
}

// InsertEvent persists an order event to the order_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := eventDocument{
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		Action:      string(event.Action),
		From:        string(event.From),
		To:          string(event.To),
		ActorID:     event.ActorID,
		Timestamp:   event.Timestamp.UTC(),
		RecordedAt:  time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

// ListByOrder returns the events of one order, oldest first.
func (r *EventRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.OrderEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find order events: %w", err)
	}

	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode order events: %w", err)
	}

	events := make([]*domain.OrderEvent, len(docs))
	for i, d := range docs {
		events[i] = &domain.OrderEvent{
			OrderID:     d.OrderID,
			OrderNumber: d.OrderNumber,
			Action:      domain.OrderAction(d.Action),
			From:        domain.OrderStatus(d.From),
			To:          domain.OrderStatus(d.To),
			ActorID:     d.ActorID,
			Timestamp:   d.Timestamp.UTC(),
		}
	}
	return events, nil
}
