package controller

import (
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/controller"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/utils"
	"zoom-lms-api/modules/livestream/dto"
	"zoom-lms-api/modules/livestream/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LivestreamController handles broadcast HTTP requests
type LivestreamController struct {
	controller.BaseController
	LivestreamService service.LivestreamServiceInterface
}

func NewLivestreamController(svc service.LivestreamServiceInterface) *LivestreamController {
	return &LivestreamController{
		BaseController:    controller.NewBaseController(),
		LivestreamService: svc,
	}
}

func (c *LivestreamController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}

// CreateBroadcast handles POST /livestreams
func (c *LivestreamController) CreateBroadcast(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateBroadcastRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if req.Title == "" || req.StartTime.IsZero() {
		return c.BadRequest(errors.ErrInvalidInput, "title and start_time are required")
	}

	result, appErr := c.LivestreamService.CreateBroadcast(ctx.Request().Context(), userID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Broadcast created")
}

// UpdateBroadcast handles PUT /livestreams
func (c *LivestreamController) UpdateBroadcast(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.UpdateBroadcastRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if req.BroadcastID == "" || req.Title == "" {
		return c.BadRequest(errors.ErrInvalidInput, "broadcast_id and title are required")
	}

	if appErr := c.LivestreamService.UpdateBroadcast(ctx.Request().Context(), userID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Broadcast updated")
}

// StartMeetingBroadcast handles POST /livestreams/meetings/:id/start
func (c *LivestreamController) StartMeetingBroadcast(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.LivestreamService.StartLiveBroadcastOwned(ctx.Request().Context(), userID, ctx.Param("id"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Livestream started")
}
