package controller

import (
	"net/http"
	"zoom-lms-api/core/controller"
	"zoom-lms-api/modules/webhook/dto"
	"zoom-lms-api/modules/webhook/service"

	"github.com/labstack/echo/v4"
)

// WebhookController receives provider event callbacks.
type WebhookController struct {
	controller.BaseController
	WebhookService service.WebhookServiceInterface
}

func NewWebhookController(svc service.WebhookServiceInterface) *WebhookController {
	return &WebhookController{
		BaseController: controller.NewBaseController(),
		WebhookService: svc,
	}
}

// HandleZoomEvent handles POST /webhooks/zoom. The provider expects an
// empty 200 on success; any failure answers 400 so the event is surfaced in
// the provider's delivery log.
func (c *WebhookController) HandleZoomEvent(ctx echo.Context) error {
	if appErr := c.WebhookService.Authorize(ctx.Request().Header.Get("Authorization")); appErr != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	var event dto.ZoomEvent
	if err := ctx.Bind(&event); err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	// Malformed envelopes and downstream failures both come back as 400.
	if appErr := c.WebhookService.Dispatch(ctx.Request().Context(), &event); appErr != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}
	return ctx.NoContent(http.StatusOK)
}
