package controller

import (
	"net/http"

	"booking-gateway/core/controller"
	"booking-gateway/core/errors"
	"booking-gateway/modules/auth/dto"
	"booking-gateway/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	controller.BaseController
	service *service.OAuthService
}

func NewAuthController(service *service.OAuthService) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetGoogleAuthURL starts the consent flow.
// GET /api/v1/public/auth/google
func (c *AuthController) GetGoogleAuthURL(ctx echo.Context) error {
	resp, appErr := c.service.GetAuthURL(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// HandleGoogleCallback completes the consent flow. Google redirects here with
// ?code=...&state=...; provider-side denials arrive as ?error=....
// GET /api/v1/public/auth/google/callback
func (c *AuthController) HandleGoogleCallback(ctx echo.Context) error {
	if providerErr := ctx.QueryParam("error"); providerErr != "" {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrAuthExchange,
			"authorization was denied: "+providerErr, nil))
	}

	resp, appErr := c.service.ExchangeCode(ctx.Request().Context(),
		ctx.QueryParam("code"), ctx.QueryParam("state"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Login authenticates the operator for the private admin surface.
// POST /api/v1/public/admin/login
func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}
	if req.Email == "" || req.Password == "" {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInvalidInput, "email and password are required", nil))
	}

	resp, appErr := c.service.AdminLogin(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// TokenStatus reports whether the company calendar is connected.
// GET /api/v1/private/admin/token-status
func (c *AuthController) TokenStatus(ctx echo.Context) error {
	resp, appErr := c.service.TokenStatus(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Revoke disconnects the company calendar.
// POST /api/v1/private/admin/revoke
func (c *AuthController) Revoke(ctx echo.Context) error {
	if appErr := c.service.Revoke(ctx.Request().Context()); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"message": "credential revoked"})
}
