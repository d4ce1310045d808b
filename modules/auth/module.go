package auth

import (
	"zoom-lms-api/core/cache"
	"zoom-lms-api/core/database"
	"zoom-lms-api/core/middleware"
	"zoom-lms-api/modules/auth/controller"
	"zoom-lms-api/modules/auth/repository"
	"zoom-lms-api/modules/auth/router"
	"zoom-lms-api/modules/auth/service"
	ltclient "zoom-lms-api/modules/livestream/client"
	mclient "zoom-lms-api/modules/meeting/client"

	"github.com/labstack/echo/v4"
)

// Module exposes the credential service to the other modules.
type Module struct {
	Service service.AuthServiceInterface
}

// Init initializes the auth module and registers routes
func Init(e *echo.Echo, db database.IDatabase, c cache.ICache, zoomClient *mclient.ZoomClient, ytClient *ltclient.YouTubeClient, mw *middleware.Middleware) *Module {
	repo := repository.NewAuthRepository(db)
	svc := service.NewAuthService(repo, c, zoomClient, ytClient)
	ctrl := controller.NewAuthController(svc)
	rtr := router.NewAuthRouter(ctrl)

	rtr.Setup(e, mw)

	return &Module{Service: svc}
}
