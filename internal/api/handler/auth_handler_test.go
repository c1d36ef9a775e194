package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "a@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 1, Username: in.Username, Email: in.Email, Active: true, Roles: []domain.Role{domain.RoleUser}}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/register",
		body:   `{"username":" alice ","email":"a@example.com","password":"secret1"}`,
	})
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var user userResponse
	env := decodeEnvelope(t, rec, &user)
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	if user.Username != "alice" || !user.IsActive || len(user.Roles) != 1 || user.Roles[0] != "USER" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/register",
		body:   `{"username":"al","email":"not-an-email","password":"123"}`,
	})
	err := h.Register(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"username", "email", "password"} {
		if !fields[want] {
			t.Fatalf("expected %s in validation errors, got %v", want, verr.Details())
		}
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(testRequest{method: http.MethodPost, target: "/api/auth/register", body: `{"username":`})
	if err := h.Register(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	})

	c, _ := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/register",
		body:   `{"username":"bob","email":"b@example.com","password":"secret1"}`,
	})
	if err := h.Register(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.User, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected credentials: %s/%s", username, password)
			}
			return "signed.jwt.token", &domain.User{ID: 7, Username: "alice", Email: "a@example.com", Roles: []domain.Role{domain.RoleUser}}, nil
		},
	})

	c, rec := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"username":"alice","password":"secret1"}`,
	})
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	decodeEnvelope(t, rec, &resp)
	if resp.AccessToken != "signed.jwt.token" || resp.TokenType != "Bearer" || resp.UserID != 7 {
		t.Fatalf("unexpected auth payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	})

	c, _ := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"username":"alice","password":"wrong"}`,
	})
	if err := h.Login(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestAuthHandler_RegisterAdmin_PassesSecretAndCaller(t *testing.T) {
	caller := adminClaims(1)
	h := NewAuthHandler(&stubAuthService{
		registerAdminFn: func(ctx context.Context, got *domain.AuthClaims, in ports.RegisterAdminInput) (*domain.User, error) {
			if got != caller {
				t.Fatalf("caller claims not forwarded")
			}
			if in.SecretKey != "s3cret" || in.Username != "root2" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 2, Username: in.Username, Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}, nil
		},
	})

	c, rec := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/register-admin",
		body:   `{"username":"root2","email":"r2@example.com","password":"secret1","secret_key":"s3cret"}`,
		claims: caller,
	})
	if err := h.RegisterAdmin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_RegisterAdmin_Anonymous(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		registerAdminFn: func(ctx context.Context, got *domain.AuthClaims, in ports.RegisterAdminInput) (*domain.User, error) {
			if got != nil {
				t.Fatalf("expected nil caller, got %+v", got)
			}
			return nil, domain.ErrAdminRequired
		},
	})

	c, _ := newTestContext(testRequest{
		method: http.MethodPost,
		target: "/api/auth/register-admin",
		body:   `{"username":"mallory","email":"m@example.com","password":"secret1"}`,
	})
	if err := h.RegisterAdmin(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{
		currentUserFn: func(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error) {
			return &domain.User{ID: claims.UserID, Username: claims.Username}, nil
		},
	})

	c, rec := newTestContext(testRequest{method: http.MethodGet, target: "/api/auth/me", claims: userClaims(5)})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var user userResponse
	decodeEnvelope(t, rec, &user)
	if user.ID != 5 {
		t.Fatalf("expected user 5, got %+v", user)
	}
}

func TestAuthHandler_Me_WithoutClaims(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(testRequest{method: http.MethodGet, target: "/api/auth/me"})
	if err := h.Me(c); !errors.Is(err, domain.ErrMissingClaims) {
		t.Fatalf("expected ErrMissingClaims, got %v", err)
	}
}
