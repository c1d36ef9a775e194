package ports

import (
	"context"

	"github.com/99minutos/order-management/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Username and email uniqueness is enforced by the store; a duplicate
// insert or update returns an error wrapping domain.ErrConflict.
type UserRepository interface {
	// Create assigns the user a new ID and persists it.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	// List returns a page of users ordered by ID. activeOnly restricts it to active accounts.
	List(ctx context.Context, page Page, activeOnly bool) ([]*domain.User, int64, error)
	// Search matches term case-insensitively against username, email, first and last name.
	Search(ctx context.Context, term string, page Page) ([]*domain.User, int64, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	// ClaimFirstAdmin records that the unauthenticated first-admin path was
	// taken. Exactly one caller ever gets true.
	ClaimFirstAdmin(ctx context.Context) (bool, error)
	// ReleaseFirstAdmin drops a claim whose admin was never created.
	ReleaseFirstAdmin(ctx context.Context) error
}
