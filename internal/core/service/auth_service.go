package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/order-management/internal/pkg/metrics"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// AuthService implements registration, login and the admin bootstrap protocol.
type AuthService struct {
	users       ports.UserRepository
	hasher      ports.PasswordHasher
	tokens      *TokenService
	adminSecret string
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens *TokenService,
	adminSecret string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		adminSecret: adminSecret,
		log:         log,
		now:         time.Now,
	}
}

// Register creates an ordinary account holding the USER role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if err := s.checkAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, in, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("user").Inc()
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token. Unknown usernames, inactive
// accounts and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	case err != nil:
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !user.Active || !s.hasher.Verify(password, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.log.Debug().Str("username", username).Msg("login rejected")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	return token, user, nil
}

// RegisterAdmin creates an account holding USER and ADMIN. While no admin
// exists the request needs no authorization; afterwards it must carry the
// configured secret key or come from an authenticated admin.
func (s *AuthService) RegisterAdmin(ctx context.Context, caller *domain.AuthClaims, in ports.RegisterAdminInput) (*domain.User, error) {
	if err := s.checkAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	first, err := s.claimFirstAdmin(ctx)
	if err != nil {
		return nil, err
	}

	kind := "admin"
	if first {
		kind = "first_admin"
	} else if !s.secretMatches(in.SecretKey) && !domain.Authorize(caller, domain.RoleAdmin) {
		s.log.Warn().Str("username", in.Username).Msg("admin registration rejected")
		return nil, domain.ErrAdminRequired
	}

	user, err := s.create(ctx, in.RegisterInput, domain.RoleUser, domain.RoleAdmin)
	if err != nil {
		if first {
			if rerr := s.users.ReleaseFirstAdmin(ctx); rerr != nil {
				s.log.Error().Err(rerr).Msg("failed to release first admin claim")
			}
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(kind).Inc()
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Str("kind", kind).Msg("admin registered")
	return user, nil
}

// claimFirstAdmin reports whether this request is the unauthenticated first
// admin. Only one request wins the store's marker while no admin exists.
func (s *AuthService) claimFirstAdmin(ctx context.Context) (bool, error) {
	admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("register admin: count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}
	first, err := s.users.ClaimFirstAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("register admin: %w", err)
	}
	return first, nil
}

// CurrentUser returns the stored account behind claims.
func (s *AuthService) CurrentUser(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}
	return s.users.FindByID(ctx, claims.UserID)
}

// secretMatches compares in constant time. An unset secret never matches.
func (s *AuthService) secretMatches(provided string) bool {
	if s.adminSecret == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.adminSecret)) == 1
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists {
		return domain.Conflictf("username %q is already taken", username)
	}

	exists, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Conflictf("email %q is already registered", email)
	}
	return nil
}

// create hashes the password and inserts an active user. The store's unique
// indexes decide races between concurrent requests.
func (s *AuthService) create(ctx context.Context, in ports.RegisterInput, roles ...domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, r := range roles {
		user.AddRole(r)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
