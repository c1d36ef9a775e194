package ports

import (
	"context"

	"github.com/99minutos/order-management/internal/core/domain"
)

// PasswordHasher produces and checks one-way salted password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// IdempotencyStore binds a client-supplied key to the order it created.
type IdempotencyStore interface {
	// Claim reserves (userID, key) for a new order. When the key is already
	// taken it returns claimed=false with the bound order id, or 0 while the
	// request holding the claim has not finished.
	Claim(ctx context.Context, userID int64, key string) (orderID int64, claimed bool, err error)
	// Complete binds a claimed key to the created order.
	Complete(ctx context.Context, userID int64, key string, orderID int64) error
	// Release drops a claim whose order was never created.
	Release(ctx context.Context, userID int64, key string) error
}

// EventPublisher hands audit events to an asynchronous consumer.
type EventPublisher interface {
	Publish(event domain.OrderEvent)
}
