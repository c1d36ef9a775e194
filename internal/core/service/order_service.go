package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/order-management/internal/pkg/metrics"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

const orderNumberAttempts = 5

// OrderOptions tunes OrderService behaviour.
type OrderOptions struct {
	// StrictTransitions makes SetStatus and admin status changes through
	// Modify honour the lifecycle transition table.
	StrictTransitions bool
}

// OrderService implements the order lifecycle use cases.
type OrderService struct {
	orders      ports.OrderRepository
	events      ports.EventRepository
	idempotency ports.IdempotencyStore
	publisher   ports.EventPublisher
	opts        OrderOptions
	log         zerolog.Logger
	now         func() time.Time
	newNumber   func(time.Time) string
}

// NewOrderService wires an OrderService. idempotency and publisher may be nil.
func NewOrderService(
	orders ports.OrderRepository,
	events ports.EventRepository,
	idempotency ports.IdempotencyStore,
	publisher ports.EventPublisher,
	opts OrderOptions,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		events:      events,
		idempotency: idempotency,
		publisher:   publisher,
		opts:        opts,
		log:         log,
		now:         time.Now,
		newNumber:   generateOrderNumber,
	}
}

// generateOrderNumber returns ORD-<last 6 digits of unix millis>-<8 random hex chars>.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%06d-%s", now.UnixMilli()%1_000_000, strings.ToUpper(uuid.NewString()[:8]))
}

// Create places a new PENDING order owned by the caller.
func (s *OrderService) Create(ctx context.Context, claims *domain.AuthClaims, in ports.CreateOrderInput) (*domain.Order, bool, error) {
	if claims == nil {
		return nil, false, domain.ErrMissingClaims
	}

	verr := &domain.ValidationError{}
	collect(verr, domain.ValidateAmount("total_amount", in.TotalAmount))
	collect(verr, domain.ValidateLength("delivery_address", in.DeliveryAddress, domain.MaxDeliveryAddressLength))
	collect(verr, domain.ValidateLength("notes", in.Notes, domain.MaxNotesLength))
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	existing, owned, err := s.reserve(ctx, claims.UserID, in.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	number, err := s.uniqueOrderNumber(ctx)
	if err != nil {
		s.release(ctx, claims.UserID, in.IdempotencyKey, owned)
		return nil, false, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		OrderNumber:     number,
		UserID:          claims.UserID,
		Username:        claims.Username,
		TotalAmount:     in.TotalAmount,
		Status:          domain.StatusPending,
		OrderDate:       now,
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Str("order_number", number).Msg("failed to create order")
		s.release(ctx, claims.UserID, in.IdempotencyKey, owned)
		return nil, false, err
	}

	if owned {
		if err := s.idempotency.Complete(ctx, claims.UserID, in.IdempotencyKey, order.ID); err != nil {
			s.log.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to store idempotency key")
		}
	}

	metrics.OrdersCreatedTotal.Inc()
	s.publish(order, domain.ActionCreated, "", claims)
	s.log.Info().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("user_id", claims.UserID).
		Msg("order created")

	return order, false, nil
}

// reserve claims key for this request. It returns the order previously
// created under key on a replay, and owned=true when this request holds the
// claim. Store failures are logged and the request proceeds unclaimed.
func (s *OrderService) reserve(ctx context.Context, userID int64, key string) (*domain.Order, bool, error) {
	if key == "" || s.idempotency == nil {
		return nil, false, nil
	}

	orderID, claimed, err := s.idempotency.Claim(ctx, userID, key)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("idempotency claim failed, creating anyway")
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if orderID == 0 {
		return nil, false, domain.ErrIdempotencyPending
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("idempotent order not loadable, creating anyway")
		return nil, false, nil
	}

	metrics.OrderIdempotentReplaysTotal.Inc()
	s.log.Info().Int64("order_id", orderID).Int64("user_id", userID).Msg("idempotent replay")
	return order, false, nil
}

func (s *OrderService) release(ctx context.Context, userID int64, key string, owned bool) {
	if !owned {
		return
	}
	if err := s.idempotency.Release(ctx, userID, key); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to release idempotency key")
	}
}

// uniqueOrderNumber draws numbers until one is unused. The unique index
// still rejects a number that is taken between the check and the insert.
func (s *OrderService) uniqueOrderNumber(ctx context.Context) (string, error) {
	for range orderNumberAttempts {
		number := s.newNumber(s.now())
		exists, err := s.orders.ExistsByOrderNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", domain.ErrDuplicateOrder
}

// Get returns an order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}
	return s.loadAccessible(ctx, claims, id)
}

// ListMine pages through the caller's own orders.
func (s *OrderService) ListMine(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}
	page = page.Normalize()
	items, total, err := s.orders.FindByUserID(ctx, claims.UserID, page)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *OrderService) ListAll(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.orders.FindAll(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *OrderService) ListByStatus(ctx context.Context, claims *domain.AuthClaims, status domain.OrderStatus, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown order status "+string(status))
	}
	page = page.Normalize()
	items, total, err := s.orders.FindByStatus(ctx, status, page)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

func (s *OrderService) Search(ctx context.Context, claims *domain.AuthClaims, term string, page ports.Page) (*ports.PageResult[*domain.Order], error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("term", "must not be blank")
	}
	page = page.Normalize()
	items, total, err := s.orders.Search(ctx, term, page)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	return ports.NewPageResult(items, total, page), nil
}

// Modify applies a partial update while the order is PENDING or CONFIRMED.
// A status supplied by a non-admin is ignored.
func (s *OrderService) Modify(ctx context.Context, claims *domain.AuthClaims, id int64, in ports.UpdateOrderInput) (*domain.Order, error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}

	order, err := s.loadAccessible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsModifiable() {
		return nil, domain.Conflictf("order %s cannot be modified in status %s", order.OrderNumber, order.Status)
	}

	verr := &domain.ValidationError{}
	if in.TotalAmount != nil {
		collect(verr, domain.ValidateAmount("total_amount", *in.TotalAmount))
	}
	if in.DeliveryAddress != nil {
		collect(verr, domain.ValidateLength("delivery_address", *in.DeliveryAddress, domain.MaxDeliveryAddressLength))
	}
	if in.Notes != nil {
		collect(verr, domain.ValidateLength("notes", *in.Notes, domain.MaxNotesLength))
	}
	applyStatus := in.Status != nil && claims.IsAdmin()
	if applyStatus && !in.Status.Valid() {
		verr.Add("status", "unknown order status "+string(*in.Status))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	from := order.Status
	changes := ports.OrderChanges{
		TotalAmount:     in.TotalAmount,
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
		UpdatedAt:       s.now().UTC(),
	}
	if applyStatus && *in.Status != from {
		if err := s.checkTransition(from, *in.Status); err != nil {
			return nil, err
		}
		changes.Status = in.Status
	}

	if err := s.orders.Update(ctx, id, from, changes); err != nil {
		return nil, err
	}
	applyChanges(order, changes)

	if order.Status != from {
		metrics.OrderStatusChangesTotal.WithLabelValues(string(from), string(order.Status)).Inc()
	}
	s.publish(order, domain.ActionModified, from, claims)
	s.log.Info().Int64("order_id", order.ID).Int64("user_id", claims.UserID).Msg("order modified")
	return order, nil
}

// SetStatus overwrites the status of an order. The transition table is only
// consulted when strict transitions are enabled.
func (s *OrderService) SetStatus(ctx context.Context, claims *domain.AuthClaims, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown order status "+string(status))
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := s.checkTransition(from, status); err != nil {
		return nil, err
	}

	if err := s.orders.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set order status: %w", err)
	}
	order.Status = status
	order.UpdatedAt = s.now().UTC()

	metrics.OrderStatusChangesTotal.WithLabelValues(string(from), string(status)).Inc()
	s.publish(order, domain.ActionStatusSet, from, claims)
	s.log.Info().
		Int64("order_id", id).
		Str("from", string(from)).
		Str("status", string(status)).
		Msg("order status set")
	return order, nil
}

// Cancel moves a non-terminal order to CANCELLED. The write only succeeds
// while the order still holds the status it was read with.
func (s *OrderService) Cancel(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}

	order, err := s.loadAccessible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsCancellable() {
		return nil, domain.Conflictf("order %s cannot be cancelled in status %s", order.OrderNumber, order.Status)
	}

	from := order.Status
	if err := s.orders.CompareAndSetStatus(ctx, id, from, domain.StatusCancelled); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCancelled
	order.UpdatedAt = s.now().UTC()

	metrics.OrderStatusChangesTotal.WithLabelValues(string(from), string(domain.StatusCancelled)).Inc()
	s.publish(order, domain.ActionCancelled, from, claims)
	s.log.Info().Int64("order_id", id).Int64("user_id", claims.UserID).Msg("order cancelled")
	return order, nil
}

// Delete removes an order regardless of its status.
func (s *OrderService) Delete(ctx context.Context, claims *domain.AuthClaims, id int64) error {
	if err := requireAdmin(claims); err != nil {
		return err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orders.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.publish(order, domain.ActionDeleted, order.Status, claims)
	s.log.Info().Int64("order_id", id).Str("order_number", order.OrderNumber).Msg("order deleted")
	return nil
}

// History returns the audit trail of an order to its owner or an admin.
func (s *OrderService) History(ctx context.Context, claims *domain.AuthClaims, id int64) ([]*domain.OrderEvent, error) {
	if claims == nil {
		return nil, domain.ErrMissingClaims
	}
	if _, err := s.loadAccessible(ctx, claims, id); err != nil {
		return nil, err
	}
	events, err := s.events.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return events, nil
}

func (s *OrderService) loadAccessible(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(claims, order.UserID) {
		return nil, domain.ErrOrderAccessDenied
	}
	return order, nil
}

func applyChanges(order *domain.Order, changes ports.OrderChanges) {
	if changes.TotalAmount != nil {
		order.TotalAmount = *changes.TotalAmount
	}
	if changes.DeliveryAddress != nil {
		order.DeliveryAddress = *changes.DeliveryAddress
	}
	if changes.Notes != nil {
		order.Notes = *changes.Notes
	}
	if changes.Status != nil {
		order.Status = *changes.Status
	}
	order.UpdatedAt = changes.UpdatedAt
}

func (s *OrderService) checkTransition(from, to domain.OrderStatus) error {
	if s.opts.StrictTransitions && !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

func (s *OrderService) publish(order *domain.Order, action domain.OrderAction, from domain.OrderStatus, claims *domain.AuthClaims) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Action:      action,
		From:        from,
		To:          order.Status,
		ActorID:     claims.UserID,
		Timestamp:   s.now().UTC(),
	})
}

func requireAdmin(claims *domain.AuthClaims) error {
	if claims == nil {
		return domain.ErrMissingClaims
	}
	if !domain.Authorize(claims, domain.RoleAdmin) {
		return domain.ErrAdminRequired
	}
	return nil
}

func collect(verr *domain.ValidationError, fe *domain.FieldError) {
	if fe != nil {
		verr.Fields = append(verr.Fields, *fe)
	}
}
