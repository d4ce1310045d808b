package middleware

import (
	"net/http"
	"strings"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/controller"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/utils"

	"github.com/labstack/echo/v4"
)

// Middleware bundles the request middlewares shared by all modules.
type Middleware struct {
	limiter *RateLimiter
}

func NewMiddleware() *Middleware {
	return &Middleware{
		limiter: NewRateLimiter(DefaultRateLimiterConfig()),
	}
}

// AuthMiddleware validates the LMS bearer token and stores its claims in the
// request context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized,
					errors.ErrMissingAuthorizationHeader, "missing authorization header")
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return controller.NewErrorResponse(http.StatusUnauthorized,
					errors.ErrInvalidTokenFormat, "authorization header must be a bearer token")
			}

			claims, err := utils.ValidateAndParseToken(tokenString)
			if err != nil {
				logger.Error("Middleware:AuthMiddleware:ValidateAndParseToken:Error", "error", err)
				return controller.NewErrorResponse(http.StatusUnauthorized,
					errors.ErrUnauthorized, "invalid or expired token")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// RateLimitMiddleware applies the per-caller request rate limit. Callers are
// keyed by authenticated user when available, remote address otherwise.
func (m *Middleware) RateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if claims, ok := c.Get(constants.ContextTokenData).(*utils.TokenClaims); ok {
				key = claims.UserID.String()
			}
			if !m.limiter.Allow(key) {
				return controller.NewErrorResponse(http.StatusTooManyRequests,
					errors.ErrProviderRateLimited, "too many requests")
			}
			return next(c)
		}
	}
}
