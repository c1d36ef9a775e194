package domain

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// validTransitions defines the allowed state machine transitions.
// DELIVERED and CANCELLED are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

const (
	MaxDeliveryAddressLength = 500
	MaxNotesLength           = 1000

	amountScale         = 2
	amountIntegerDigits = 8
)

var maxAmount = decimal.New(1, amountIntegerDigits) // 10^8, exclusive

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts a status name into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, st.Valid()
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	return validTransitions[s]
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsModifiable reports whether order fields may still be edited.
func (s OrderStatus) IsModifiable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsCancellable reports whether the order can still be cancelled.
func (s OrderStatus) IsCancellable() bool {
	return !s.IsTerminal()
}

// Order is the core aggregate root. UserID never changes after creation.
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          int64           `json:"user_id"`
	Username        string          `json:"username"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ValidateAmount checks a monetary amount: strictly positive, at most two
// fractional digits, fitting precision 10 scale 2.
func ValidateAmount(field string, amount decimal.Decimal) *FieldError {
	switch {
	case !amount.IsPositive():
		return &FieldError{Field: field, Message: "must be greater than 0"}
	case !amount.Equal(amount.Round(amountScale)):
		return &FieldError{Field: field, Message: "must have at most 2 decimal places"}
	case amount.GreaterThanOrEqual(maxAmount):
		return &FieldError{Field: field, Message: "must have at most 8 integer digits"}
	}
	return nil
}

// ValidateLength checks an optional text field against a rune limit.
func ValidateLength(field, value string, limit int) *FieldError {
	if utf8.RuneCountInString(value) > limit {
		return &FieldError{Field: field, Message: "must not exceed " + strconv.Itoa(limit) + " characters"}
	}
	return nil
}

// OrderAction names the lifecycle change recorded in an OrderEvent.
type OrderAction string

const (
	ActionCreated   OrderAction = "created"
	ActionModified  OrderAction = "modified"
	ActionStatusSet OrderAction = "status_set"
	ActionCancelled OrderAction = "cancelled"
	ActionDeleted   OrderAction = "deleted"
)

// OrderEvent is an audit record of a change applied to an order.
type OrderEvent struct {
	OrderID     int64
	OrderNumber string
	Action      OrderAction
	From        OrderStatus // empty on creation
	To          OrderStatus
	ActorID     int64
	Timestamp   time.Time
}
