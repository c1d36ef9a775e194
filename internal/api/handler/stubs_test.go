package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/api/middleware"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// --- Request helpers ---

type testRequest struct {
	method string
	target string
	body   string
	claims *domain.AuthClaims
	params map[string]string
	header map[string]string
}

func newTestContext(tr testRequest) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var body io.Reader
	if tr.body != "" {
		body = strings.NewReader(tr.body)
	}
	req := httptest.NewRequest(tr.method, tr.target, body)
	if tr.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range tr.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if len(tr.params) > 0 {
		names := make([]string, 0, len(tr.params))
		values := make([]string, 0, len(tr.params))
		for name, value := range tr.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if tr.claims != nil {
		c.Set(middleware.ClaimsKey, tr.claims)
	}
	return c, rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, rec.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data: %v (%s)", err, env.Data)
		}
	}
	return env
}

func userClaims(id int64) *domain.AuthClaims {
	return &domain.AuthClaims{UserID: id, Username: "alice", Roles: []domain.Role{domain.RoleUser}}
}

func adminClaims(id int64) *domain.AuthClaims {
	return &domain.AuthClaims{UserID: id, Username: "root", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}
}

// --- Service stubs ---

type stubAuthService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn         func(ctx context.Context, username, password string) (string, *domain.User, error)
	registerAdminFn func(ctx context.Context, caller *domain.AuthClaims, in ports.RegisterAdminInput) (*domain.User, error)
	currentUserFn   func(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) RegisterAdmin(ctx context.Context, caller *domain.AuthClaims, in ports.RegisterAdminInput) (*domain.User, error) {
	return s.registerAdminFn(ctx, caller, in)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error) {
	return s.currentUserFn(ctx, claims)
}

// stubOrderService embeds the interface so tests only implement what they call.
type stubOrderService struct {
	ports.OrderService
	createFn    func(ctx context.Context, claims *domain.AuthClaims, in ports.CreateOrderInput) (*domain.Order, bool, error)
	getFn       func(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error)
	listMineFn  func(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.Order], error)
	byStatusFn  func(ctx context.Context, claims *domain.AuthClaims, status domain.OrderStatus, page ports.Page) (*ports.PageResult[*domain.Order], error)
	searchFn    func(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.Order], error)
	modifyFn    func(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateOrderInput) (*domain.Order, error)
	setStatusFn func(ctx context.Context, claims *domain.AuthClaims, id int64, status domain.OrderStatus) (*domain.Order, error)
	cancelFn    func(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error)
	deleteFn    func(ctx context.Context, claims *domain.AuthClaims, id int64) error
	historyFn   func(ctx context.Context, claims *domain.AuthClaims, id int64) ([]*domain.OrderEvent, error)
}

func (s *stubOrderService) Create(ctx context.Context, claims *domain.AuthClaims, in ports.CreateOrderInput) (*domain.Order, bool, error) {
	return s.createFn(ctx, claims, in)
}

func (s *stubOrderService) Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error) {
	return s.getFn(ctx, claims, id)
}

func (s *stubOrderService) ListMine(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	return s.listMineFn(ctx, claims, page)
}

func (s *stubOrderService) ListByStatus(ctx context.Context, claims *domain.AuthClaims, status domain.OrderStatus, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	return s.byStatusFn(ctx, claims, status, page)
}

func (s *stubOrderService) Search(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	return s.searchFn(ctx, claims, term, page)
}

func (s *stubOrderService) Modify(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateOrderInput) (*domain.Order, error) {
	return s.modifyFn(ctx, claims, id, in)
}

func (s *stubOrderService) SetStatus(ctx context.Context, claims *domain.AuthClaims, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return s.setStatusFn(ctx, claims, id, status)
}

func (s *stubOrderService) Cancel(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error) {
	return s.cancelFn(ctx, claims, id)
}

func (s *stubOrderService) Delete(ctx context.Context, claims *domain.AuthClaims, id int64) error {
	return s.deleteFn(ctx, claims, id)
}

func (s *stubOrderService) History(ctx context.Context, claims *domain.AuthClaims, id int64) ([]*domain.OrderEvent, error) {
	return s.historyFn(ctx, claims, id)
}

type stubUserService struct {
	ports.UserService
	getFn        func(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)
	listFn       func(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.User], error)
	searchFn     func(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.User], error)
	updateFn     func(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateUserInput) (*domain.User, error)
	deactivateFn func(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)
	deleteFn     func(ctx context.Context, claims *domain.AuthClaims, id int64) error
	assignFn     func(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error)
	removeFn     func(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error)
}

func (s *stubUserService) Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error) {
	return s.getFn(ctx, claims, id)
}

func (s *stubUserService) List(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.User], error) {
	return s.listFn(ctx, claims, page)
}

func (s *stubUserService) Search(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.User], error) {
	return s.searchFn(ctx, claims, term, page)
}

func (s *stubUserService) Update(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, claims, id, in)
}

func (s *stubUserService) Deactivate(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error) {
	return s.deactivateFn(ctx, claims, id)
}

func (s *stubUserService) DeletePermanently(ctx context.Context, claims *domain.AuthClaims, id int64) error {
	return s.deleteFn(ctx, claims, id)
}

func (s *stubUserService) AssignRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error) {
	return s.assignFn(ctx, claims, id, role)
}

func (s *stubUserService) RemoveRole(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error) {
	return s.removeFn(ctx, claims, id, role)
}

type stubStatsService struct {
	stats *ports.Stats
	err   error
}

func (s *stubStatsService) Stats(ctx context.Context, claims *domain.AuthClaims) (*ports.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !claims.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return s.stats, nil
}
