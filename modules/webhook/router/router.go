package router

import (
	"zoom-lms-api/modules/webhook/controller"

	"github.com/labstack/echo/v4"
)

// WebhookRouter handles provider callback routes
type WebhookRouter struct {
	WebhookController *controller.WebhookController
}

// NewWebhookRouter creates a new router
func NewWebhookRouter(webhookController *controller.WebhookController) *WebhookRouter {
	return &WebhookRouter{
		WebhookController: webhookController,
	}
}

// Setup registers webhook routes. The shared-secret check inside the
// handler replaces the JWT middleware here.
func (r *WebhookRouter) Setup(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/public/webhooks/zoom", r.WebhookController.HandleZoomEvent)
}
