package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
	"github.com/platformkit/identity/internal/pkg/token"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates an unconfirmed account and mails a confirmation link.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.RealIP(),
	})
	observe(domain.EventSignup, err)
	if err != nil {
		return withStatus(http.StatusBadRequest, err, domain.ErrWrongCredentials)
	}

	return c.JSON(http.StatusCreated, signupResponse{Username: user.Username, Email: user.Email})
}

// Confirm activates the account behind a confirmation token.
//
// @Summary      Confirm an account
// @Tags         auth
// @Produce      json
// @Param        token  path      string  true  "Confirmation token"
// @Success      200    {object}  confirmResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /confirm/{token} [get]
func (h *AuthHandler) Confirm(c echo.Context) error {
	tok := c.Param("token")
	if !token.HasValidLength(tok) {
		observe(domain.EventConfirm, domain.ErrInvalidToken)
		return withStatus(http.StatusBadRequest, domain.ErrInvalidToken, domain.ErrInvalidToken)
	}

	err := h.authService.Confirm(c.Request().Context(), tok)
	observe(domain.EventConfirm, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, confirmResponse{Confirmed: true, DeepLink: h.authService.AppLink()})
}

// Login opens a session for a confirmed account.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	tok, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, c.RealIP())
	observe(domain.EventLogin, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: tok})
}

// RequestPasswordReset mails a single-use reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /password_reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email, c.RealIP())
	observe(domain.EventResetRequest, err)
	if err != nil {
		return withStatus(http.StatusNotFound, err, domain.ErrEmailNotExist)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password reset email sent"})
}

// ChangePassword redeems a reset token.
//
// @Summary      Set a new password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                 true  "Reset token"
// @Param        body   body      changePasswordRequest  true  "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /password/{token} [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	tok := c.Param("token")
	if !token.HasValidLength(tok) {
		observe(domain.EventPasswordChange, domain.ErrInvalidToken)
		return withStatus(http.StatusBadRequest, domain.ErrInvalidToken, domain.ErrInvalidToken)
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.authService.ChangePassword(c.Request().Context(), tok, req.Password, req.PasswordConfirmation)
	observe(domain.EventPasswordChange, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}
