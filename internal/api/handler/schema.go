package handler

import (
	"encoding/json"
	"time"
)

// --- Envelope ---

// apiResponse wraps every successful payload.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(message string, data any) apiResponse {
	return apiResponse{Success: true, Message: message, Data: data}
}

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// --- Auth ---

type registerRequest struct {
	Username  string `json:"username"   validate:"required,min=3,max=50"`
	Email     string `json:"email"      validate:"required,email,max=100"`
	Password  string `json:"password"   validate:"required,min=6,max=100"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name"  validate:"max=50"`
	Phone     string `json:"phone"      validate:"max=20"`
}

type registerAdminRequest struct {
	registerRequest
	SecretKey string `json:"secret_key"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Users ---

type updateUserRequest struct {
	Username  *string `json:"username"   validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email"      validate:"omitempty,email,max=100"`
	Password  *string `json:"password"   validate:"omitempty,min=6,max=100"`
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name"  validate:"omitempty,max=50"`
	Phone     *string `json:"phone"      validate:"omitempty,max=20"`
}

// --- Orders ---

// Amounts are taken as JSON numbers or strings and parsed exactly.
type createOrderRequest struct {
	TotalAmount     json.Number `json:"total_amount"     validate:"required"`
	DeliveryAddress string      `json:"delivery_address"`
	Notes           string      `json:"notes"`
}

type updateOrderRequest struct {
	TotalAmount     *json.Number `json:"total_amount"`
	DeliveryAddress *string      `json:"delivery_address"`
	Notes           *string      `json:"notes"`
	Status          *string      `json:"status"`
}

type orderResponse struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          int64       `json:"user_id"`
	Username        string      `json:"username"`
	TotalAmount     json.Number `json:"total_amount"`
	Status          string      `json:"status"`
	OrderDate       time.Time   `json:"order_date"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type orderEventResponse struct {
	Action    string    `json:"action"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// --- Admin ---

type userStatsResponse struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

type statsResponse struct {
	Users  userStatsResponse `json:"users"`
	Orders map[string]int64  `json:"orders"`
}

type dashboardResponse struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	TotalOrders   int64 `json:"total_orders"`
	PendingOrders int64 `json:"pending_orders"`
}
