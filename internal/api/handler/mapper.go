package handler

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		IsActive:  u.Active,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAuthResponse(token string, u *domain.User) authResponse {
	return authResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Roles:       u.RoleNames(),
	}
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Username:        o.Username,
		TotalAmount:     json.Number(o.TotalAmount.StringFixed(2)),
		Status:          string(o.Status),
		OrderDate:       o.OrderDate,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderEventResponses(events []*domain.OrderEvent) []orderEventResponse {
	out := make([]orderEventResponse, len(events))
	for i, e := range events {
		out[i] = orderEventResponse{
			Action:    string(e.Action),
			From:      string(e.From),
			To:        string(e.To),
			ActorID:   e.ActorID,
			Timestamp: e.Timestamp,
		}
	}
	return out
}

func toPageResponse[T, R any](res *ports.PageResult[T], conv func(T) R) pageResponse[R] {
	content := make([]R, len(res.Items))
	for i, item := range res.Items {
		content[i] = conv(item)
	}
	return pageResponse[R]{
		Content:       content,
		Page:          res.Page,
		Size:          res.Size,
		TotalElements: res.Total,
		TotalPages:    res.TotalPages,
	}
}

func toStatsResponse(s *ports.Stats) statsResponse {
	orders := map[string]int64{"total": s.Orders.Total}
	for status, n := range s.Orders.ByStatus {
		orders[strings.ToLower(string(status))] = n
	}
	return statsResponse{
		Users: userStatsResponse{
			Total:    s.Users.Total,
			Active:   s.Users.Active,
			Inactive: s.Users.Inactive,
		},
		Orders: orders,
	}
}

func toDashboardResponse(s *ports.Stats) dashboardResponse {
	return dashboardResponse{
		TotalUsers:    s.Users.Total,
		ActiveUsers:   s.Users.Active,
		TotalOrders:   s.Orders.Total,
		PendingOrders: s.Orders.ByStatus[domain.StatusPending],
	}
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:  strings.TrimSpace(r.Username),
		Email:     strings.TrimSpace(r.Email),
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

// parseAmount rejects non-numeric input; range and scale checks belong to
// the order service.
func parseAmount(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, domain.NewValidationError("total_amount", "must be a decimal number")
	}
	return d, nil
}

func (r createOrderRequest) toInput(idempotencyKey string) (ports.CreateOrderInput, error) {
	amount, err := parseAmount(r.TotalAmount)
	if err != nil {
		return ports.CreateOrderInput{}, err
	}
	return ports.CreateOrderInput{
		TotalAmount:     amount,
		DeliveryAddress: r.DeliveryAddress,
		Notes:           r.Notes,
		IdempotencyKey:  idempotencyKey,
	}, nil
}

func (r updateOrderRequest) toInput() (ports.UpdateOrderInput, error) {
	in := ports.UpdateOrderInput{
		DeliveryAddress: r.DeliveryAddress,
		Notes:           r.Notes,
	}
	if r.TotalAmount != nil {
		amount, err := parseAmount(*r.TotalAmount)
		if err != nil {
			return in, err
		}
		in.TotalAmount = &amount
	}
	if r.Status != nil {
		status, valid := domain.ParseOrderStatus(strings.ToUpper(*r.Status))
		if !valid {
			return in, domain.NewValidationError("status", "unknown order status")
		}
		in.Status = &status
	}
	return in, nil
}
