package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

// stubUserRepo enforces username/email uniqueness inside Create the way the
// store's unique indexes do, so concurrent registrations race safely.
type stubUserRepo struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*domain.User
	firstAdmin bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, u := range r.byID {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return domain.ErrUserExists
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) count(match func(*domain.User) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.byID {
		if match(u) {
			n++
		}
	}
	return n
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	return r.count(func(u *domain.User) bool { return u.HasRole(role) }), nil
}

func (r *stubUserRepo) Count(context.Context) (int64, error) {
	return r.count(func(*domain.User) bool { return true }), nil
}

func (r *stubUserRepo) CountActive(context.Context) (int64, error) {
	return r.count(func(u *domain.User) bool { return u.Active }), nil
}

func (r *stubUserRepo) filter(match func(*domain.User) bool, page ports.Page) ([]*domain.User, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.User
	for _, u := range r.byID {
		if match(u) {
			matched = append(matched, cloneUser(u))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, page), int64(len(matched))
}

func (r *stubUserRepo) List(_ context.Context, page ports.Page, activeOnly bool) ([]*domain.User, int64, error) {
	items, total := r.filter(func(u *domain.User) bool { return !activeOnly || u.Active }, page)
	return items, total, nil
}

func (r *stubUserRepo) Search(_ context.Context, term string, page ports.Page) ([]*domain.User, int64, error) {
	term = strings.ToLower(term)
	items, total := r.filter(func(u *domain.User) bool {
		return strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(strings.ToLower(u.FirstName), term) ||
			strings.Contains(strings.ToLower(u.LastName), term)
	}, page)
	return items, total, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) ClaimFirstAdmin(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.firstAdmin {
		return false, nil
	}
	r.firstAdmin = true
	return true, nil
}

func (r *stubUserRepo) ReleaseFirstAdmin(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firstAdmin = false
	return nil
}

type stubOrderRepo struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]*domain.Order
	taken    map[string]bool // order numbers reported as existing
	casCalls int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{byID: make(map[int64]*domain.Order), taken: make(map[string]bool)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	clone := *o
	return &clone
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.OrderNumber == o.OrderNumber {
			return domain.ErrDuplicateOrder
		}
	}
	r.nextID++
	o.ID = r.nextID
	r.byID[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) Update(_ context.Context, id int64, expected domain.OrderStatus, changes ports.OrderChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != expected {
		return domain.ErrConcurrentUpdate
	}
	if changes.TotalAmount != nil {
		o.TotalAmount = *changes.TotalAmount
	}
	if changes.DeliveryAddress != nil {
		o.DeliveryAddress = *changes.DeliveryAddress
	}
	if changes.Notes != nil {
		o.Notes = *changes.Notes
	}
	if changes.Status != nil {
		o.Status = *changes.Status
	}
	o.UpdatedAt = changes.UpdatedAt
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) filter(match func(*domain.Order) bool, page ports.Page) ([]*domain.Order, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Order
	for _, o := range r.byID {
		if match(o) {
			matched = append(matched, cloneOrder(o))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, page), int64(len(matched))
}

func (r *stubOrderRepo) FindByUserID(_ context.Context, userID int64, page ports.Page) ([]*domain.Order, int64, error) {
	items, total := r.filter(func(o *domain.Order) bool { return o.UserID == userID }, page)
	return items, total, nil
}

func (r *stubOrderRepo) FindByStatus(_ context.Context, status domain.OrderStatus, page ports.Page) ([]*domain.Order, int64, error) {
	items, total := r.filter(func(o *domain.Order) bool { return o.Status == status }, page)
	return items, total, nil
}

func (r *stubOrderRepo) FindAll(_ context.Context, page ports.Page) ([]*domain.Order, int64, error) {
	items, total := r.filter(func(*domain.Order) bool { return true }, page)
	return items, total, nil
}

func (r *stubOrderRepo) Search(_ context.Context, term string, page ports.Page) ([]*domain.Order, int64, error) {
	term = strings.ToLower(term)
	items, total := r.filter(func(o *domain.Order) bool {
		return strings.Contains(strings.ToLower(o.OrderNumber), term) ||
			strings.Contains(strings.ToLower(o.DeliveryAddress), term)
	}, page)
	return items, total, nil
}

func (r *stubOrderRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubOrderRepo) ExistsByOrderNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken[number] {
		return true, nil
	}
	for _, o := range r.byID {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) SetStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *stubOrderRepo) CompareAndSetStatus(_ context.Context, id int64, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.casCalls++
	o, ok := r.byID[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrConcurrentUpdate
	}
	o.Status = to
	return nil
}

func (r *stubOrderRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *stubOrderRepo) CountByStatus(_ context.Context, status domain.OrderStatus) (int64, error) {
	_, total := r.filter(func(o *domain.Order) bool { return o.Status == status }, ports.Page{Number: 1, Size: 1})
	return total, nil
}

// set stores o as-is, bypassing the service.
func (r *stubOrderRepo) set(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID > r.nextID {
		r.nextID = o.ID
	}
	r.byID[o.ID] = cloneOrder(o)
}

func paginate[T any](items []T, page ports.Page) []T {
	page = page.Normalize()
	skip := int(page.Skip())
	if skip >= len(items) {
		return []T{}
	}
	end := skip + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

type stubEventRepo struct {
	mu        sync.Mutex
	events    []*domain.OrderEvent
	insertErr error
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.OrderEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *e
	r.events = append(r.events, &clone)
	return nil
}

func (r *stubEventRepo) ListByOrder(_ context.Context, orderID int64) ([]*domain.OrderEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.OrderEvent
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

// stubHasher is a reversible stand-in for bcrypt.
type stubHasher struct{}

func (stubHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (stubHasher) Verify(p, digest string) bool  { return digest == "hashed:"+p }

// stubIdempotency keeps claims in a map; a zero value marks a pending claim.
type stubIdempotency struct {
	mu       sync.Mutex
	keys     map[string]int64
	claimErr error
	released int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]int64)}
}

func idemKey(userID int64, key string) string {
	return strconv.FormatInt(userID, 10) + ":" + key
}

func (s *stubIdempotency) Claim(_ context.Context, userID int64, key string) (int64, bool, error) {
	if s.claimErr != nil {
		return 0, false, s.claimErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.keys[idemKey(userID, key)]; ok {
		return id, false, nil
	}
	s.keys[idemKey(userID, key)] = 0
	return 0, true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, userID int64, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(userID, key)] = orderID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, idemKey(userID, key))
	s.released++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(e domain.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions() []domain.OrderAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderAction, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

// ---------------------------------------------------------------------------
// Claims helpers
// ---------------------------------------------------------------------------

func userClaims(id int64, username string) *domain.AuthClaims {
	return &domain.AuthClaims{UserID: id, Username: username, Roles: []domain.Role{domain.RoleUser}}
}

func adminClaims(id int64) *domain.AuthClaims {
	return &domain.AuthClaims{UserID: id, Username: "admin", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}
}
