package router

import (
	"zoom-lms-api/core/middleware"
	"zoom-lms-api/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

// AuthRouter handles credential routes
type AuthRouter struct {
	AuthController *controller.AuthController
}

// NewAuthRouter creates a new router
func NewAuthRouter(authController *controller.AuthController) *AuthRouter {
	return &AuthRouter{
		AuthController: authController,
	}
}

// Setup registers credential routes
func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// The provider redirects the browser here without our JWT.
	v1.GET("/public/auth/google/callback", r.AuthController.GoogleCallback)

	privateRoutes := v1.Group("/private")
	authRoutes := privateRoutes.Group("/auth", mw.AuthMiddleware())

	authRoutes.GET("/zoom/is-logged", r.AuthController.ZoomLoginStatus)
	authRoutes.GET("/google/is-logged", r.AuthController.GoogleLoginStatus)
	authRoutes.GET("/google/login", r.AuthController.GoogleLogin)
	authRoutes.GET("/google/permissions", r.AuthController.CheckPermissions)
}
