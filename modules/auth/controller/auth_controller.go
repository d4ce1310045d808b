package controller

import (
	"net/http"
	"zoom-lms-api/core/constants"
	"zoom-lms-api/core/controller"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/utils"
	"zoom-lms-api/modules/auth/dto"
	"zoom-lms-api/modules/auth/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthController handles credential HTTP requests for both providers.
type AuthController struct {
	controller.BaseController
	AuthService service.AuthServiceInterface
}

func NewAuthController(svc service.AuthServiceInterface) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		AuthService:    svc,
	}
}

// getUserIDFromContext extracts user ID from JWT context
func (c *AuthController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// ZoomLoginStatus handles GET /auth/zoom/is-logged
func (c *AuthController) ZoomLoginStatus(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	status := c.AuthService.ZoomLoginStatus(ctx.Request().Context(), userID)
	return c.SuccessResponse(ctx, status, "Login status")
}

// GoogleLoginStatus handles GET /auth/google/is-logged
func (c *AuthController) GoogleLoginStatus(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	status := c.AuthService.GoogleLoginStatus(ctx.Request().Context(), userID)
	return c.SuccessResponse(ctx, status, "Login status")
}

// GoogleLogin handles GET /auth/google/login and hands back the consent URL
// the client should send the browser to.
func (c *AuthController) GoogleLogin(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	redirect := ctx.QueryParam("redirect")
	if redirect == "" {
		return c.BadRequest(errors.ErrBadRequest, "redirect is required")
	}

	authURL, appErr := c.AuthService.GoogleAuthURL(ctx.Request().Context(), userID, redirect)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, &dto.GoogleAuthURLResponse{URL: authURL}, "Consent URL generated")
}

// GoogleCallback handles GET /auth/google/callback. The provider redirects
// the browser here, so this route carries no JWT; identity comes from the
// parked state.
func (c *AuthController) GoogleCallback(ctx echo.Context) error {
	state := ctx.QueryParam("state")
	code := ctx.QueryParam("code")
	if state == "" || code == "" {
		return c.BadRequest(errors.ErrBadRequest, "state and code are required")
	}

	redirect, appErr := c.AuthService.HandleGoogleCallback(ctx.Request().Context(), state, code)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.Redirect(http.StatusFound, redirect)
}

// CheckPermissions handles GET /auth/google/permissions and re-verifies the
// user's streaming capability against both providers.
func (c *AuthController) CheckPermissions(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	perms, appErr := c.AuthService.CheckYouTubePermissions(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, perms, "Permissions verified")
}
