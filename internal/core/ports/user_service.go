package ports

import (
	"context"

	"github.com/99minutos/order-management/internal/core/domain"
)

// UpdateUserInput is a partial account update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Phone     *string
}

// UserService is the admin-only account administration surface.
type UserService interface {
	Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)
	List(ctx context.Context, claims *domain.AuthClaims, page Page) (*PageResult[*domain.User], error)
	ListActive(ctx context.Context, claims *domain.AuthClaims, page Page) (*PageResult[*domain.User], error)
	Search(ctx context.Context, claims *domain.AuthClaims, term string, page Page) (*PageResult[*domain.User], error)
	Update(ctx context.Context, claims *domain.AuthClaims, id int64, input UpdateUserInput) (*domain.User, error)
	Deactivate(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)
	Activate(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)
	DeletePermanently(ctx context.Context, claims *domain.AuthClaims, id int64) error
	AssignRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error)
	RemoveRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error)
}

// UserStats summarises account counts.
type UserStats struct {
	Total    int64
	Active   int64
	Inactive int64
}

// OrderStats summarises order counts.
type OrderStats struct {
	Total    int64
	ByStatus map[domain.OrderStatus]int64
}

// Stats is the admin dashboard payload.
type Stats struct {
	Users  UserStats
	Orders OrderStats
}

// StatsService reports system-wide counts to admins.
type StatsService interface {
	Stats(ctx context.Context, claims *domain.AuthClaims) (*Stats, error)
}

// AuditService records order lifecycle events.
type AuditService interface {
	Record(ctx context.Context, event domain.OrderEvent) error
}
