package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

// AccountHandler serves the account lifecycle endpoints. Service errors are
// returned as-is and rendered by the central HTTP error handler.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// --- Request types ---

type registerRequest struct {
	Email       string `json:"email" validate:"max=320"`
	Password    string `json:"password" validate:"max=128"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

type renameRequest struct {
	Password    string `json:"password" validate:"max=128"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

type changePasswordRequest struct {
	Password    string `json:"password" validate:"max=128"`
	NewPassword string `json:"new_password" validate:"max=128"`
}

type removeRequest struct {
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"max=128"`
}

type elevateRoleRequest struct {
	Role string `json:"role" validate:"required,max=32"`
}

// Register handles POST /v1/accounts.
//
// @Summary      Register a new account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/accounts [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.service.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/accounts/"+account.ID.String())
	return c.JSON(http.StatusCreated, toAccountResponse(*account))
}

// Get handles GET /v1/accounts/:id.
//
// @Summary      Get an account by id
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Account id"
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := domain.ParseAccountID(c.Param("id"))
	if err != nil {
		return err
	}

	account, found, err := h.service.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return domain.NotFound(domain.EntityAccount, id)
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Lookup handles GET /v1/accounts?email=… or ?name=….
//
// @Summary      Look up an account by email or display name
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        email  query     string  false  "Exact email"
// @Param        name   query     string  false  "Exact display name"
// @Success      200    {object}  accountResponse
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /v1/accounts [get]
func (h *AccountHandler) Lookup(c echo.Context) error {
	email, name := c.QueryParam("email"), c.QueryParam("name")

	var (
		account domain.Account
		found   bool
		err     error
		key     string
	)
	switch {
	case email != "" && name != "":
		return echo.NewHTTPError(http.StatusBadRequest, "use either email or name, not both")
	case email != "":
		key = email
		account, found, err = h.service.FindByEmail(c.Request().Context(), email)
	case name != "":
		key = name
		account, found, err = h.service.FindByName(c.Request().Context(), name)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "email or name query parameter is required")
	}
	if err != nil {
		return err
	}
	if !found {
		return domain.NotFound(domain.EntityAccount, key)
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Rename handles PATCH /v1/accounts/me/name.
//
// @Summary      Change the caller's display name
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      renameRequest  true  "Current password and new name"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/accounts/me/name [patch]
func (h *AccountHandler) Rename(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req renameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.service.RenameDisplay(c.Request().Context(), id, req.Password, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(*account))
}

// ChangePassword handles PATCH /v1/accounts/me/password.
//
// @Summary      Change the caller's password
// @Tags         accounts
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/accounts/me/password [patch]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.service.ChangePassword(c.Request().Context(), id, req.Password, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Remove handles DELETE /v1/accounts/me.
//
// @Summary      Delete the caller's account
// @Tags         accounts
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  removeRequest  true  "Email and password confirmation"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/accounts/me [delete]
func (h *AccountHandler) Remove(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req removeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Remove(c.Request().Context(), id, req.Email, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ElevateRole handles PUT /v1/admin/accounts/:name/role.
//
// @Summary      Assign a role to an account
// @Description  Admin only. Accepts FISHER, GOODFISHER or GREATFISHER.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string              true  "Target display name"
// @Param        body  body      elevateRoleRequest  true  "Role token"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/accounts/{name}/role [put]
func (h *AccountHandler) ElevateRole(c echo.Context) error {
	actor, err := callerID(c)
	if err != nil {
		return err
	}
	var req elevateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.service.ElevateRole(c.Request().Context(), actor, c.Param("name"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(*account))
}
