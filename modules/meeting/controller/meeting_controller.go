package controller

import (
	"net/http"
	"strings"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/controller"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/utils"
	"zoom-lms-api/modules/meeting/dto"
	"zoom-lms-api/modules/meeting/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MeetingController handles meeting HTTP requests
type MeetingController struct {
	controller.BaseController
	MeetingService service.MeetingServiceInterface
}

// NewMeetingController creates a new controller
func NewMeetingController(svc service.MeetingServiceInterface) *MeetingController {
	return &MeetingController{
		BaseController: controller.NewBaseController(),
		MeetingService: svc,
	}
}

// getClaimsFromContext extracts the JWT claims placed by the auth middleware
func (c *MeetingController) getClaimsFromContext(ctx echo.Context) (*utils.TokenClaims, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims, nil
}

func (c *MeetingController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	claims, err := c.getClaimsFromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

// ScheduleMeeting handles POST /meetings
func (c *MeetingController) ScheduleMeeting(ctx echo.Context) error {
	hostID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ScheduleMeetingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if req.Title == "" || req.Duration == "" || req.StartTime.IsZero() {
		return c.BadRequest(errors.ErrInvalidInput, "title, start_time and duration are required")
	}

	result, appErr := c.MeetingService.ScheduleMeeting(ctx.Request().Context(), hostID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Meeting scheduled")
}

// UpdateScheduledMeeting handles PUT /meetings/:id
func (c *MeetingController) UpdateScheduledMeeting(ctx echo.Context) error {
	hostID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	meetingID := ctx.Param("id")
	var req dto.ScheduleMeetingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	if appErr := c.MeetingService.UpdateScheduledMeeting(ctx.Request().Context(), hostID, meetingID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Meeting updated")
}

// StartMeeting handles GET /meetings/start. The provider sends the host's
// browser here with an authorization code; the prior request state rides in
// the base64 data parameter.
func (c *MeetingController) StartMeeting(ctx echo.Context) error {
	hostID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	code := ctx.QueryParam("code")
	rawData := ctx.QueryParam("data")
	if code == "" || rawData == "" {
		return c.BadRequest(errors.ErrBadRequest, "code and data are required")
	}

	result, appErr := c.MeetingService.StartMeeting(
		ctx.Request().Context(), hostID, rawData, code, c.redirectURI(ctx))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.Redirect(http.StatusFound, result.StartURL)
}

// redirectURI rebuilds the exact URI the provider redirected to, which the
// token endpoint requires verbatim. Everything from the code parameter on
// was appended by the provider and is stripped.
func (c *MeetingController) redirectURI(ctx echo.Context) string {
	cfg := config.Get()
	full := cfg.LMS.BaseURL + ctx.Request().RequestURI
	if i := strings.Index(full, "&code"); i >= 0 {
		return full[:i]
	}
	return full
}

// StartPublicMeeting handles GET /public/meetings/:id/join and redirects
// straight into a public meeting.
func (c *MeetingController) StartPublicMeeting(ctx echo.Context) error {
	joinURL, appErr := c.MeetingService.StartPublicMeeting(ctx.Request().Context(), ctx.Param("id"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.Redirect(http.StatusFound, joinURL)
}

// StudentJoinURL handles GET /meetings/:id/join-url. The email comes from
// the caller's token, never from a parameter.
func (c *MeetingController) StudentJoinURL(ctx echo.Context) error {
	claims, err := c.getClaimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.MeetingService.StudentJoinURL(ctx.Request().Context(), ctx.Param("id"), claims.Email)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Join URL lookup")
}
