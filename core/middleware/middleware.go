package middleware

import (
	"net/http"
	"strings"

	"booking-gateway/core/constants"
	"booking-gateway/core/errors"
	"booking-gateway/core/utils"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// AuthMiddleware protects the operator surface with a bearer JWT.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrMissingAuthorizationHeader, "missing Authorization header", nil))
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				return echo.NewHTTPError(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrInvalidTokenFormat, "Authorization header must use Bearer scheme", nil))
			}

			tokenData, err := utils.ValidateAndParseToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err)
			}

			c.Set(constants.ContextTokenData, tokenData)
			return next(c)
		}
	}
}

// CORSMiddleware allows the public widget to call the gateway from the
// browser, mirroring the headers the original deployment sent.
func (m *Middleware) CORSMiddleware() echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "x-client-info", "apikey"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
}
