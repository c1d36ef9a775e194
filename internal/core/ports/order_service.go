package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/99minutos/order-management/internal/core/domain"
)

// CreateOrderInput carries the fields of a new order.
type CreateOrderInput struct {
	TotalAmount     decimal.Decimal
	DeliveryAddress string
	Notes           string
	// IdempotencyKey is optional; a repeat from the same user replays the first order.
	IdempotencyKey string
}

// UpdateOrderInput is a partial update. Nil fields are left unchanged.
type UpdateOrderInput struct {
	TotalAmount     *decimal.Decimal
	DeliveryAddress *string
	Notes           *string
	// Status is applied only when the caller is an admin.
	Status *domain.OrderStatus
}

// OrderService defines the order lifecycle use cases. Every call receives
// the caller's verified claims.
type OrderService interface {
	// Create reports replayed=true when the order came from the idempotency store.
	Create(ctx context.Context, claims *domain.AuthClaims, input CreateOrderInput) (order *domain.Order, replayed bool, err error)
	Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error)
	ListMine(ctx context.Context, claims *domain.AuthClaims, page Page) (*PageResult[*domain.Order], error)
	ListAll(ctx context.Context, claims *domain.AuthClaims, page Page) (*PageResult[*domain.Order], error)
	ListByStatus(ctx context.Context, claims *domain.AuthClaims, status domain.OrderStatus, page Page) (*PageResult[*domain.Order], error)
	Search(ctx context.Context, claims *domain.AuthClaims, term string, page Page) (*PageResult[*domain.Order], error)
	Modify(ctx context.Context, claims *domain.AuthClaims, id int64, input UpdateOrderInput) (*domain.Order, error)
	SetStatus(ctx context.Context, claims *domain.AuthClaims, id int64, status domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error)
	Delete(ctx context.Context, claims *domain.AuthClaims, id int64) error
	History(ctx context.Context, claims *domain.AuthClaims, id int64) ([]*domain.OrderEvent, error)
}
