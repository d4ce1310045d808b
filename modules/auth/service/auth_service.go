package service

import (
	"context"
	"encoding/json"
	"time"
	"zoom-lms-api/core/cache"
	"zoom-lms-api/core/config"
	"zoom-lms-api/core/errors"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/modules/auth/dto"
	"zoom-lms-api/modules/auth/entity"
	"zoom-lms-api/modules/auth/repository"
	ltclient "zoom-lms-api/modules/livestream/client"
	mclient "zoom-lms-api/modules/meeting/client"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/oauth2"
)

// AuthService owns the stored credentials for both providers. Access tokens
// are never persisted for the meeting provider; only the rotating refresh
// token is, so every API call starts with a refresh.
type AuthService struct {
	repo        repository.AuthRepositoryInterface
	cache       cache.ICache
	zoomClient  *mclient.ZoomClient
	ytClient    *ltclient.YouTubeClient
	googleOAuth *oauth2.Config
}

type AuthServiceInterface interface {
	ExchangeZoomCode(ctx context.Context, userID uuid.UUID, code string, redirectURI string) (string, *errors.AppError)
	ZoomAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
	ZoomLoginStatus(ctx context.Context, userID uuid.UUID) *dto.ZoomLoginResponse
	GoogleAuthURL(ctx context.Context, userID uuid.UUID, redirect string) (string, *errors.AppError)
	HandleGoogleCallback(ctx context.Context, state string, code string) (string, *errors.AppError)
	GoogleAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
	GoogleLoginStatus(ctx context.Context, userID uuid.UUID) *dto.GoogleLoginResponse
	CheckYouTubePermissions(ctx context.Context, userID uuid.UUID) (*dto.LivePermissions, *errors.AppError)
}

func NewAuthService(repo repository.AuthRepositoryInterface, c cache.ICache, zoomClient *mclient.ZoomClient, ytClient *ltclient.YouTubeClient) *AuthService {
	cfg := config.Get()
	return &AuthService{
		repo:       repo,
		cache:      c,
		zoomClient: zoomClient,
		ytClient:   ytClient,
		googleOAuth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Scopes:       []string{"https://www.googleapis.com/auth/youtube"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Google.AuthURL,
				TokenURL: cfg.Google.TokenURL,
			},
		},
	}
}

// ===================== Meeting provider =====================

// ExchangeZoomCode trades an authorization code for a token set, persists
// the refresh token and returns the access token for immediate use.
func (s *AuthService) ExchangeZoomCode(ctx context.Context, userID uuid.UUID, code string, redirectURI string) (string, *errors.AppError) {
	token, appErr := s.zoomClient.ExchangeCode(ctx, code, redirectURI)
	if appErr != nil {
		return "", appErr
	}
	if err := s.repo.SaveZoomRefreshToken(ctx, userID, token.RefreshToken); err != nil {
		logger.Error("AuthService:ExchangeZoomCode:Save:Error", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	return token.AccessToken, nil
}

// ZoomAccessToken returns a fresh access token for the user. The provider
// rotates the refresh token on every grant, so the new one is persisted
// before the access token is handed out.
func (s *AuthService) ZoomAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	cred, err := s.repo.GetZoomCredential(ctx, userID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil {
		return "", errors.NewAppError(errors.ErrNoCredential, "no meeting provider credential", nil)
	}

	token, appErr := s.zoomClient.RefreshAccessToken(ctx, cred.RefreshToken)
	if appErr != nil {
		return "", appErr
	}
	if err := s.repo.SaveZoomRefreshToken(ctx, userID, token.RefreshToken); err != nil {
		logger.Error("AuthService:ZoomAccessToken:Save:Error", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	return token.AccessToken, nil
}

// ZoomLoginStatus probes the stored credential by refreshing it and reading
// the user profile. Any failure simply reports "not logged".
func (s *AuthService) ZoomLoginStatus(ctx context.Context, userID uuid.UUID) *dto.ZoomLoginResponse {
	accessToken, appErr := s.ZoomAccessToken(ctx, userID)
	if appErr != nil {
		return &dto.ZoomLoginResponse{Logged: false}
	}
	profile, appErr := s.zoomClient.GetUserProfile(ctx, accessToken)
	if appErr != nil {
		return &dto.ZoomLoginResponse{Logged: false}
	}
	return &dto.ZoomLoginResponse{
		Logged:    true,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
}

// ===================== Broadcast provider =====================

// oauthStatePayload is parked in the cache under the state nonce. The
// provider calls the callback from the user's browser without our JWT, so
// the user identity has to travel with the state.
type oauthStatePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	Redirect string    `json:"redirect"`
}

// GoogleAuthURL builds the consent URL for the broadcast provider. The
// caller's identity and post-login redirect are parked in the cache under a
// one-time state nonce.
func (s *AuthService) GoogleAuthURL(ctx context.Context, userID uuid.UUID, redirect string) (string, *errors.AppError) {
	state, err := gonanoid.New()
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to generate state", err)
	}
	payload, err := json.Marshal(oauthStatePayload{UserID: userID, Redirect: redirect})
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to encode oauth state", err)
	}
	if err := s.cache.SetOAuthState(ctx, state, string(payload)); err != nil {
		logger.Error("AuthService:GoogleAuthURL:SetState:Error", "error", err)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store oauth state", err)
	}
	authURL := s.googleOAuth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	return authURL, nil
}

// HandleGoogleCallback validates the state nonce, exchanges the code and
// persists the credential. It returns the redirect that was parked when the
// flow started.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, state string, code string) (string, *errors.AppError) {
	raw, found, err := s.cache.ConsumeOAuthState(ctx, state)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to read oauth state", err)
	}
	if !found {
		return "", errors.NewAppError(errors.ErrUnauthorized, "unknown oauth state", nil)
	}
	var parked oauthStatePayload
	if err := json.Unmarshal([]byte(raw), &parked); err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "corrupt oauth state", err)
	}

	token, err := s.googleOAuth.Exchange(ctx, code)
	if err != nil {
		logger.Error("AuthService:HandleGoogleCallback:Exchange:Error", "error", err, "user_id", parked.UserID)
		return "", errors.NewAppError(errors.ErrExchangeFailed, "code exchange failed", err)
	}

	expiry := token.Expiry.UTC()
	cred := &entity.GoogleCredential{
		UserID:       parked.UserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     s.googleOAuth.Endpoint.TokenURL,
		Scopes:       s.googleOAuth.Scopes,
		Expiry:       &expiry,
	}
	if err := s.repo.SaveGoogleCredential(ctx, cred); err != nil {
		logger.Error("AuthService:HandleGoogleCallback:Save:Error", "error", err, "user_id", parked.UserID)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	return parked.Redirect, nil
}

// GoogleAccessToken returns a usable access token for the user, refreshing
// the stored one when it has expired. Expiry is compared and stored in UTC.
func (s *AuthService) GoogleAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	cred, appErr := s.freshGoogleCredential(ctx, userID)
	if appErr != nil {
		return "", appErr
	}
	return cred.AccessToken, nil
}

func (s *AuthService) freshGoogleCredential(ctx context.Context, userID uuid.UUID) (*entity.GoogleCredential, *errors.AppError) {
	cred, err := s.repo.GetGoogleCredential(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil {
		return nil, errors.NewAppError(errors.ErrNoCredential, "no broadcast provider credential", nil)
	}
	if !cred.Expired(time.Now()) {
		return cred, nil
	}

	stored := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	}
	if cred.Expiry != nil {
		stored.Expiry = *cred.Expiry
	}
	refreshed, err := s.googleOAuth.TokenSource(ctx, stored).Token()
	if err != nil {
		logger.Error("AuthService:freshGoogleCredential:Refresh:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrRefreshFailed, "token refresh failed", err)
	}

	cred.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		cred.RefreshToken = refreshed.RefreshToken
	}
	expiry := refreshed.Expiry.UTC()
	cred.Expiry = &expiry
	if err := s.repo.SaveGoogleCredential(ctx, cred); err != nil {
		logger.Error("AuthService:freshGoogleCredential:Save:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	return cred, nil
}

// GoogleLoginStatus reports the stored credential and its recorded
// permission flags without touching the provider.
func (s *AuthService) GoogleLoginStatus(ctx context.Context, userID uuid.UUID) *dto.GoogleLoginResponse {
	cred, err := s.repo.GetGoogleCredential(ctx, userID)
	if err != nil || cred == nil {
		return &dto.GoogleLoginResponse{Logged: false}
	}
	return &dto.GoogleLoginResponse{
		Logged:                true,
		ChannelEnabled:        cred.ChannelEnabled,
		LivestreamEnabled:     cred.LivestreamEnabled,
		LivestreamZoomEnabled: cred.LivestreamZoomEnabled,
	}
}

// CheckYouTubePermissions probes what the user can actually do: whether the
// account owns a channel, whether it may create live broadcasts, and
// whether the meeting account allows custom streaming. The verified flags
// are stored on the credential.
func (s *AuthService) CheckYouTubePermissions(ctx context.Context, userID uuid.UUID) (*dto.LivePermissions, *errors.AppError) {
	cred, appErr := s.freshGoogleCredential(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	perms := &dto.LivePermissions{}

	hasChannel, appErr := s.ytClient.HasChannel(ctx, cred.AccessToken)
	if appErr != nil {
		return nil, appErr
	}
	perms.ChannelEnabled = hasChannel

	if hasChannel {
		perms.LivestreamEnabled = s.probeBroadcastInsert(ctx, cred.AccessToken)
	}

	// Custom streaming must also be enabled on the meeting account.
	if accessToken, appErr := s.ZoomAccessToken(ctx, userID); appErr == nil {
		if settings, appErr := s.zoomClient.GetUserSettings(ctx, accessToken); appErr == nil {
			perms.LivestreamZoomEnabled = settings.InMeeting.CustomLiveStreamingService
		}
	}

	cred.ChannelEnabled = perms.ChannelEnabled
	cred.LivestreamEnabled = perms.LivestreamEnabled
	cred.LivestreamZoomEnabled = perms.LivestreamZoomEnabled
	if err := s.repo.SaveGoogleCredential(ctx, cred); err != nil {
		logger.Error("AuthService:CheckYouTubePermissions:Save:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	return perms, nil
}

// probeBroadcastInsert verifies broadcast permission by creating a
// short-lived test broadcast and deleting it again. There is no lighter
// call that distinguishes "allowed" from "live streaming not enabled".
func (s *AuthService) probeBroadcastInsert(ctx context.Context, accessToken string) bool {
	probe, appErr := s.ytClient.InsertBroadcast(ctx, accessToken,
		"Permission check", "", time.Now().Add(24*time.Hour), "private")
	if appErr != nil {
		return false
	}
	if appErr := s.ytClient.DeleteBroadcast(ctx, accessToken, probe.ID); appErr != nil {
		logger.Warn("AuthService:probeBroadcastInsert:Cleanup:Error", "error", appErr, "broadcast_id", probe.ID)
	}
	return true
}
