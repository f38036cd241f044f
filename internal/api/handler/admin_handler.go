package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/platformkit/identity/internal/api/metrics"
	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// AdminHandler serves company and role administration. Routes are mounted
// behind Auth and RBAC(admin).
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers returns every account with its global roles.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userListItem
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	rows, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, userListItem{User: toUserResponse(r.User), Roles: toRoleResponses(r.Roles)})
	}
	return c.JSON(http.StatusOK, out)
}

// SetUserType switches a user between regular and enterprise.
//
// @Summary      Set user type
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int              true  "User ID"
// @Param        body  body  userTypeRequest  true  "New type"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /users/{id}/type [put]
func (h *AdminHandler) SetUserType(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req userTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetUserType(c.Request().Context(), userID, req.UserType); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddRoles grants global roles and propagates them to every company the
// user belongs to.
//
// @Summary      Add roles
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int           true  "User ID"
// @Param        body  body  rolesRequest  true  "Role codes"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/roles [post]
func (h *AdminHandler) AddRoles(c echo.Context) error {
	return h.changeRoles(c, "add", h.service.AddRoles)
}

// RemoveRoles revokes global roles and their company-scoped copies.
//
// @Summary      Remove roles
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int           true  "User ID"
// @Param        body  body  rolesRequest  true  "Role codes"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/roles [delete]
func (h *AdminHandler) RemoveRoles(c echo.Context) error {
	return h.changeRoles(c, "remove", h.service.RemoveRoles)
}

func (h *AdminHandler) changeRoles(c echo.Context, op string, apply func(ctx context.Context, userID int64, codes []string) error) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req rolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := apply(c.Request().Context(), userID, req.Roles); err != nil {
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues(op).Inc()
	return c.NoContent(http.StatusNoContent)
}

// CreateCompany registers a tenant.
//
// @Summary      Create company
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCompanyRequest  true  "Company"
// @Success      201   {object}  domain.Company
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /companies [post]
func (h *AdminHandler) CreateCompany(c echo.Context) error {
	var req createCompanyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	company, err := h.service.CreateCompany(c.Request().Context(), domain.NewCompany{
		Name:    req.Name,
		Email:   req.Email,
		Website: req.Website,
		Address: req.Address,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

// ListCompanies returns every company.
//
// @Summary      List companies
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Company
// @Router       /companies [get]
func (h *AdminHandler) ListCompanies(c echo.Context) error {
	companies, err := h.service.ListCompanies(c.Request().Context())
	if err != nil {
		return err
	}
	if companies == nil {
		companies = []*domain.Company{}
	}
	return c.JSON(http.StatusOK, companies)
}

// DeleteCompany removes a company together with the grants scoped to it.
//
// @Summary      Delete company
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  int  true  "Company ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /companies/{id} [delete]
func (h *AdminHandler) DeleteCompany(c echo.Context) error {
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteCompany(c.Request().Context(), companyID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetCompanyRoles replaces a user's roles inside one company.
//
// @Summary      Set company roles
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  int           true  "Company ID"
// @Param        user_id  path  int           true  "User ID"
// @Param        body     body  rolesRequest  true  "Role codes"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /companies/{id}/users/{user_id} [put]
func (h *AdminHandler) SetCompanyRoles(c echo.Context) error {
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	var req rolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetCompanyRoles(c.Request().Context(), companyID, userID, req.Roles); err != nil {
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("set_company").Inc()
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return &echo.HTTPError{Code: http.StatusUnprocessableEntity, Message: "validation failed", Internal: err}
	}
	return nil
}
