package repository

import (
	"context"
	"database/sql"
	"zoom-lms-api/core/database"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/modules/auth/entity"

	"github.com/google/uuid"
)

// AuthRepository handles credential persistence for both providers.
type AuthRepository struct {
	DB database.IDatabase
}

func NewAuthRepository(db database.IDatabase) *AuthRepository {
	return &AuthRepository{DB: db}
}

// AuthRepositoryInterface defines the repository contract.
type AuthRepositoryInterface interface {
	GetZoomCredential(ctx context.Context, userID uuid.UUID) (*entity.ZoomCredential, error)
	SaveZoomRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) error
	GetGoogleCredential(ctx context.Context, userID uuid.UUID) (*entity.GoogleCredential, error)
	SaveGoogleCredential(ctx context.Context, cred *entity.GoogleCredential) error
}

func (r *AuthRepository) GetZoomCredential(ctx context.Context, userID uuid.UUID) (*entity.ZoomCredential, error) {
	var cred entity.ZoomCredential
	query := `SELECT * FROM zoom_credentials WHERE user_id = $1`
	err := r.DB.GetContext(ctx, &cred, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AuthRepository:GetZoomCredential:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &cred, nil
}

// SaveZoomRefreshToken upserts the refresh token. Zoom rotates the refresh
// token on every access-token grant, so this runs on every refresh cycle.
func (r *AuthRepository) SaveZoomRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	query := `
		INSERT INTO zoom_credentials (user_id, refresh_token, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET refresh_token = EXCLUDED.refresh_token, updated_at = NOW()
	`
	err := r.DB.ExecContext(ctx, query, userID, refreshToken)
	if err != nil {
		logger.Error("AuthRepository:SaveZoomRefreshToken:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (r *AuthRepository) GetGoogleCredential(ctx context.Context, userID uuid.UUID) (*entity.GoogleCredential, error) {
	var cred entity.GoogleCredential
	query := `SELECT * FROM google_credentials WHERE user_id = $1`
	err := r.DB.GetContext(ctx, &cred, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AuthRepository:GetGoogleCredential:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &cred, nil
}

func (r *AuthRepository) SaveGoogleCredential(ctx context.Context, cred *entity.GoogleCredential) error {
	query := `
		INSERT INTO google_credentials (
			user_id, access_token, refresh_token, token_uri, scopes, expiry,
			channel_enabled, livestream_enabled, livestream_zoom_enabled,
			created_at, updated_at
		)
		VALUES (
			:user_id, :access_token, :refresh_token, :token_uri, :scopes, :expiry,
			:channel_enabled, :livestream_enabled, :livestream_zoom_enabled,
			NOW(), NOW()
		)
		ON CONFLICT (user_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_uri = EXCLUDED.token_uri,
			scopes = EXCLUDED.scopes,
			expiry = EXCLUDED.expiry,
			channel_enabled = EXCLUDED.channel_enabled,
			livestream_enabled = EXCLUDED.livestream_enabled,
			livestream_zoom_enabled = EXCLUDED.livestream_zoom_enabled,
			updated_at = NOW()
	`
	_, err := r.DB.NamedExecContext(ctx, query, cred)
	if err != nil {
		logger.Error("AuthRepository:SaveGoogleCredential:Error", "error", err, "user_id", cred.UserID)
		return err
	}
	return nil
}
