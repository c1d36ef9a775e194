package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry order creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create places a new PENDING order for the caller.
//
// @Summary      Create an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string              false  "Replays the first order created with the same key"
// @Param        body             body      createOrderRequest  true   "Order details"
// @Success      201              {object}  apiResponse{data=orderResponse}
// @Success      200              {object}  apiResponse{data=orderResponse}  "Idempotent replay"
// @Failure      400              {object}  api.ErrorResponse
// @Failure      401              {object}  api.ErrorResponse
// @Failure      409              {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		return domain.NewValidationError(HeaderIdempotencyKey, "must not exceed 128 characters")
	}

	in, err := req.toInput(key)
	if err != nil {
		return err
	}

	order, replayed, err := h.service.Create(c.Request().Context(), claims, in)
	if err != nil {
		return err
	}

	if replayed {
		return c.JSON(http.StatusOK, ok("Order already created", toOrderResponse(order)))
	}
	return c.JSON(http.StatusCreated, ok("Order created successfully", toOrderResponse(order)))
}

// Get returns one order. Owners and admins only.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  apiResponse{data=orderResponse}
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	order, err := h.service.Get(c.Request().Context(), claims, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toOrderResponse(order)))
}

// ListMine pages through the caller's own orders.
//
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Param        page  query     int  false  "Page number (1-based)"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {object}  apiResponse{data=pageResponse[orderResponse]}
// @Security     BearerAuth
// @Router       /orders/my-orders [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.ListMine(c.Request().Context(), claims, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toOrderResponse)))
}

// ListAll pages through every order. Admin only.
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Param        page  query     int  false  "Page number (1-based)"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {object}  apiResponse{data=pageResponse[orderResponse]}
// @Failure      403   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.ListAll(c.Request().Context(), claims, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toOrderResponse)))
}

// ListByStatus pages through orders in one status. Admin only.
//
// @Summary      List orders by status
// @Tags         orders
// @Produce      json
// @Param        status  path      string  true   "Order status"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        size    query     int     false  "Page size (max 100)"
// @Success      200     {object}  apiResponse{data=pageResponse[orderResponse]}
// @Failure      400     {object}  api.ErrorResponse
// @Failure      403     {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/status/{status} [get]
func (h *OrderHandler) ListByStatus(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	status, valid := domain.ParseOrderStatus(strings.ToUpper(c.Param("status")))
	if !valid {
		return domain.NewValidationError("status", "unknown order status")
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.ListByStatus(c.Request().Context(), claims, status, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toOrderResponse)))
}

// Search matches order numbers and delivery addresses. Admin only.
//
// @Summary      Search orders
// @Tags         orders
// @Produce      json
// @Param        query  query     string  true   "Case-insensitive substring"
// @Param        page   query     int     false  "Page number (1-based)"
// @Param        size   query     int     false  "Page size (max 100)"
// @Success      200    {object}  apiResponse{data=pageResponse[orderResponse]}
// @Failure      400    {object}  api.ErrorResponse
// @Failure      403    {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/search [get]
func (h *OrderHandler) Search(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	term, err := searchQuery(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.Search(c.Request().Context(), claims, term, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toOrderResponse)))
}

// Modify applies a partial update while the order is PENDING or CONFIRMED.
// A status in the body is honoured for admins only.
//
// @Summary      Update an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "Order ID"
// @Param        body  body      updateOrderRequest  true  "Fields to change"
// @Success      200   {object}  apiResponse{data=orderResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      403   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [put]
func (h *OrderHandler) Modify(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	order, err := h.service.Modify(c.Request().Context(), claims, id, in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("Order updated successfully", toOrderResponse(order)))
}

// SetStatus overwrites the order status. Admin only.
//
// @Summary      Set order status
// @Tags         orders
// @Produce      json
// @Param        id      path      int     true  "Order ID"
// @Param        status  query     string  true  "New status"
// @Success      200     {object}  apiResponse{data=orderResponse}
// @Failure      400     {object}  api.ErrorResponse
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) SetStatus(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	status, valid := domain.ParseOrderStatus(strings.ToUpper(c.QueryParam("status")))
	if !valid {
		return domain.NewValidationError("status", "unknown order status")
	}

	order, err := h.service.SetStatus(c.Request().Context(), claims, id, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("Order status updated successfully", toOrderResponse(order)))
}

// Cancel moves a non-terminal order to CANCELLED. Owners and admins only.
//
// @Summary      Cancel an order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  apiResponse{data=orderResponse}
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [delete]
func (h *OrderHandler) Cancel(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	order, err := h.service.Cancel(c.Request().Context(), claims, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("Order cancelled successfully", toOrderResponse(order)))
}

// Delete removes an order regardless of status. Admin only.
//
// @Summary      Delete an order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  apiResponse
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), claims, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("Order deleted successfully", nil))
}

// History lists the audit trail of an order, oldest first.
//
// @Summary      Order history
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  apiResponse{data=[]orderEventResponse}
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/history [get]
func (h *OrderHandler) History(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	events, err := h.service.History(c.Request().Context(), claims, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toOrderEventResponses(events)))
}
