package ports

import (
	"context"

	"github.com/99minutos/order-management/internal/core/domain"
)

// RegisterInput carries the fields of a self-service registration.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// RegisterAdminInput is a registration request for a privileged account.
// SecretKey authorizes it once an admin already exists.
type RegisterAdminInput struct {
	RegisterInput
	SecretKey string
}

// TokenVerifier turns a presented bearer token into verified claims.
type TokenVerifier interface {
	Verify(token string) (*domain.AuthClaims, error)
}

// AuthService covers login, registration and the admin bootstrap protocol.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// Login returns a signed token and the authenticated user.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	RegisterAdmin(ctx context.Context, caller *domain.AuthClaims, input RegisterAdminInput) (*domain.User, error)
	CurrentUser(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error)
}
