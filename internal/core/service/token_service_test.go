package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/order-management/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:       7,
		Username: "alice",
		Email:    "alice@example.com",
		Active:   true,
		Roles:    []domain.Role{domain.RoleUser, domain.RoleAdmin},
	}
}

func TestTokenService_IssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Hour).WithClock(fixedClock(now))

	token, _, err := svc.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != domain.RoleUser || claims.Roles[1] != domain.RoleAdmin {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if !claims.IssuedAt.Equal(now) || !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected validity window: %v - %v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", 0).WithClock(fixedClock(now))

	_, claims, err := svc.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %v", got)
	}
}

func TestTokenService_Verify_Expired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Hour).WithClock(fixedClock(issued))

	token, _, err := svc.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	svc.WithClock(fixedClock(issued.Add(2 * time.Hour)))
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenService_Verify_MutatedSignature(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _, err := svc.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	b := []byte(token)
	last := len(b) - 2
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}

	_, err = svc.Verify(string(b))
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized kind, got %v", err)
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	token, _, err := NewTokenService("secret", time.Hour).Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := NewTokenService("other", time.Hour).Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Verify_RejectsMalformed(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenService_Verify_RejectsOtherAlgorithm(t *testing.T) {
	now := time.Now()
	claims := tokenClaims{
		UserID: 7,
		Roles:  []string{"USER"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenService("secret", time.Hour).Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}
}

func TestTokenService_Verify_RejectsUnknownRole(t *testing.T) {
	now := time.Now()
	claims := tokenClaims{
		UserID: 7,
		Roles:  []string{"USER", "ROOT"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenService("secret", time.Hour).Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}

func TestTokenService_Verify_RejectsSubjectMismatch(t *testing.T) {
	now := time.Now()
	claims := tokenClaims{
		UserID: 7,
		Roles:  []string{"USER"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenService("secret", time.Hour).Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for subject mismatch, got %v", err)
	}
}
