package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// UserService implements admin account administration.
type UserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, log: log, now: time.Now}
}

func (s *UserService) Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.User], error) {
	return s.list(ctx, claims, page, false)
}

func (s *UserService) ListActive(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.User], error) {
	return s.list(ctx, claims, page, true)
}

func (s *UserService) list(ctx context.Context, claims *domain.AuthClaims, page ports.Page, activeOnly bool) (*ports.PageResult[*domain.User], error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.users.List(ctx, page, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *UserService) Search(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.User], error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("term", "must not be blank")
	}
	page = page.Normalize()
	items, total, err := s.users.Search(ctx, term, page)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

// Update applies a partial profile update. Uniqueness is only re-checked for
// values that actually change.
func (s *UserService) Update(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != user.Username {
		exists, err := s.users.ExistsByUsername(ctx, *in.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			return nil, domain.Conflictf("username %q is already taken", *in.Username)
		}
		user.Username = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		exists, err := s.users.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			return nil, domain.Conflictf("email %q is already registered", *in.Email)
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", claims.UserID).Msg("user updated")
	return user, nil
}

// Deactivate soft-deletes an account; it can no longer log in.
func (s *UserService) Deactivate(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error) {
	return s.setActive(ctx, claims, id, false)
}

func (s *UserService) Activate(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error) {
	return s.setActive(ctx, claims, id, true)
}

func (s *UserService) setActive(ctx context.Context, claims *domain.AuthClaims, id int64, active bool) (*domain.User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Bool("active", active).Msg("user activation changed")
	return user, nil
}

// DeletePermanently removes the account. The last admin cannot be deleted.
func (s *UserService) DeletePermanently(ctx context.Context, claims *domain.AuthClaims, id int64) error {
	if err := requireAdmin(claims); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.keepOneAdmin(ctx, user); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Str("username", user.Username).Msg("user deleted")
	return nil
}

func (s *UserService) AssignRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "unknown role "+string(role))
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role) {
		return user, nil
	}
	user.AddRole(role)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Str("role", string(role)).Msg("role assigned")
	return user, nil
}

// RemoveRole drops a role. USER is the default role and cannot be removed,
// and the last admin keeps ADMIN.
func (s *UserService) RemoveRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "unknown role "+string(role))
	}
	if role == domain.RoleUser {
		return nil, domain.NewValidationError("role", "the USER role cannot be removed")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(role) {
		return user, nil
	}
	if err := s.keepOneAdmin(ctx, user); err != nil {
		return nil, err
	}
	user.RemoveRole(role)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Str("role", string(role)).Msg("role removed")
	return user, nil
}

// keepOneAdmin refuses to strip the only remaining admin, which would reopen
// the unauthenticated first-admin registration.
func (s *UserService) keepOneAdmin(ctx context.Context, user *domain.User) error {
	if !user.HasRole(domain.RoleAdmin) {
		return nil
	}
	admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return domain.Conflictf("user %q is the last admin", user.Username)
	}
	return nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
