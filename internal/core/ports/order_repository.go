package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/order-management/internal/core/domain"
)

// OrderChanges lists the fields an Update writes. Nil fields are left as stored.
type OrderChanges struct {
	TotalAmount     *decimal.Decimal
	DeliveryAddress *string
	Notes           *string
	Status          *domain.OrderStatus
	UpdatedAt       time.Time
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create assigns the order a new ID and persists it. A duplicate order
	// number returns an error wrapping domain.ErrConflict.
	Create(ctx context.Context, order *domain.Order) error
	// Update writes changes only while the stored status still equals
	// expected. It returns domain.ErrConcurrentUpdate when the status differs.
	Update(ctx context.Context, id int64, expected domain.OrderStatus, changes OrderChanges) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID int64, page Page) ([]*domain.Order, int64, error)
	FindByStatus(ctx context.Context, status domain.OrderStatus, page Page) ([]*domain.Order, int64, error)
	FindAll(ctx context.Context, page Page) ([]*domain.Order, int64, error)
	// Search matches term case-insensitively against order number and delivery address.
	Search(ctx context.Context, term string, page Page) ([]*domain.Order, int64, error)
	DeleteByID(ctx context.Context, id int64) error
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	// SetStatus overwrites the status unconditionally.
	SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	// CompareAndSetStatus sets the status only while it still equals from.
	// It returns domain.ErrConcurrentUpdate when the stored status differs.
	CompareAndSetStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error)
}
