package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// UserHandler exposes account administration. Every route is admin only.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Get returns one account.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  apiResponse{data=userResponse}
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	return h.withUser(c, "", h.service.Get)
}

// List pages through every account.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page  query     int  false  "Page number (1-based)"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {object}  apiResponse{data=pageResponse[userResponse]}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	return h.withPage(c, h.service.List)
}

// ListActive pages through active accounts.
//
// @Summary      List active users
// @Tags         users
// @Produce      json
// @Param        page  query     int  false  "Page number (1-based)"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {object}  apiResponse{data=pageResponse[userResponse]}
// @Security     BearerAuth
// @Router       /users/active [get]
func (h *UserHandler) ListActive(c echo.Context) error {
	return h.withPage(c, h.service.ListActive)
}

// Search matches username, email, first and last name.
//
// @Summary      Search users
// @Tags         users
// @Produce      json
// @Param        query  query     string  true   "Case-insensitive substring"
// @Param        page   query     int     false  "Page number (1-based)"
// @Param        size   query     int     false  "Page size (max 100)"
// @Success      200    {object}  apiResponse{data=pageResponse[userResponse]}
// @Failure      400    {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/search [get]
func (h *UserHandler) Search(c echo.Context) error {
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

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toUserResponse)))
}

// Update applies a partial account update.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  apiResponse{data=userResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), claims, id, req.toInput())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("User updated successfully", toUserResponse(user)))
}

// Deactivate soft-deletes an account.
//
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  apiResponse{data=userResponse}
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.withUser(c, "User deactivated successfully", h.service.Deactivate)
}

// Activate re-enables a deactivated account.
//
// @Summary      Activate a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  apiResponse{data=userResponse}
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/activate [patch]
func (h *UserHandler) Activate(c echo.Context) error {
	return h.withUser(c, "User activated successfully", h.service.Activate)
}

// DeletePermanently removes an account. The last admin cannot be removed.
//
// @Summary      Delete a user permanently
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  apiResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/permanent [delete]
func (h *UserHandler) DeletePermanently(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeletePermanently(c.Request().Context(), claims, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("User deleted permanently", nil))
}

// AssignRole grants a role.
//
// @Summary      Assign a role
// @Tags         users
// @Produce      json
// @Param        id    path      int     true  "User ID"
// @Param        role  path      string  true  "Role name"  Enums(USER, ADMIN)
// @Success      200   {object}  apiResponse{data=userResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/roles/{role} [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	return h.withRole(c, "Role assigned successfully", h.service.AssignRole)
}

// RemoveRole revokes a role. USER cannot be removed.
//
// @Summary      Remove a role
// @Tags         users
// @Produce      json
// @Param        id    path      int     true  "User ID"
// @Param        role  path      string  true  "Role name"  Enums(USER, ADMIN)
// @Success      200   {object}  apiResponse{data=userResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	return h.withRole(c, "Role removed successfully", h.service.RemoveRole)
}

type userByID func(ctx context.Context, claims *domain.AuthClaims, id int64) (*domain.User, error)

func (h *UserHandler) withUser(c echo.Context, message string, fn userByID) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := fn(c.Request().Context(), claims, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok(message, toUserResponse(user)))
}

type userPage func(ctx context.Context, claims *domain.AuthClaims, page ports.Page) (*ports.PageResult[*domain.User], error)

func (h *UserHandler) withPage(c echo.Context, fn userPage) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}

	res, err := fn(c.Request().Context(), claims, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("", toPageResponse(res, toUserResponse)))
}

type userRole func(ctx context.Context, claims *domain.AuthClaims, id int64, role domain.Role) (*domain.User, error)

func (h *UserHandler) withRole(c echo.Context, message string, fn userRole) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	role, valid := domain.ParseRole(strings.ToUpper(c.Param("role")))
	if !valid {
		return domain.NewValidationError("role", "unknown role")
	}

	user, err := fn(c.Request().Context(), claims, id, role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok(message, toUserResponse(user)))
}
