package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"zoom-lms-api/core/database"
	"zoom-lms-api/core/logger"
	"zoom-lms-api/modules/meeting/entity"

	"github.com/google/uuid"
)

// MeetingRepository persists meeting mappings and the cached per-student
// join URLs. The roster tables it reads are owned by the LMS; this service
// never writes them.
type MeetingRepository struct {
	DB database.IDatabase
}

func NewMeetingRepository(db database.IDatabase) *MeetingRepository {
	return &MeetingRepository{DB: db}
}

type MeetingRepositoryInterface interface {
	GetMapping(ctx context.Context, meetingID string) (*entity.MeetingMapping, error)
	SaveMapping(ctx context.Context, mapping *entity.MeetingMapping) error
	SaveRegistrant(ctx context.Context, record *entity.RegistrantRecord) error
	GetRegistrant(ctx context.Context, meetingID string, email string) (*entity.RegistrantRecord, error)
	HasRegistrants(ctx context.Context, meetingID string) (bool, error)
	EnrolledStudents(ctx context.Context, courseKey string, excludeUserID uuid.UUID) ([]entity.EnrolledStudent, error)
}

func (r *MeetingRepository) GetMapping(ctx context.Context, meetingID string) (*entity.MeetingMapping, error) {
	var mapping entity.MeetingMapping
	query := `SELECT * FROM meeting_mappings WHERE meeting_id = $1`
	err := r.DB.GetContext(ctx, &mapping, query, meetingID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("MeetingRepository:GetMapping:Error", "error", err, "meeting_id", meetingID)
		return nil, err
	}
	return &mapping, nil
}

// SaveMapping inserts or rewrites the mapping for a meeting id. The meeting
// id is the natural key; rescheduling the same meeting updates in place.
func (r *MeetingRepository) SaveMapping(ctx context.Context, mapping *entity.MeetingMapping) error {
	query := `
		INSERT INTO meeting_mappings (
			id, meeting_id, user_id, title, course_key, usage_key,
			restricted_access, email_notification, livestream_enabled, broadcast_ids,
			created_at, updated_at
		) VALUES (
			:id, :meeting_id, :user_id, :title, :course_key, :usage_key,
			:restricted_access, :email_notification, :livestream_enabled, :broadcast_ids,
			NOW(), NOW()
		)
		ON CONFLICT (meeting_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			course_key = EXCLUDED.course_key,
			usage_key = EXCLUDED.usage_key,
			restricted_access = EXCLUDED.restricted_access,
			email_notification = EXCLUDED.email_notification,
			livestream_enabled = EXCLUDED.livestream_enabled,
			broadcast_ids = EXCLUDED.broadcast_ids,
			updated_at = NOW()`
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	_, err := r.DB.NamedExecContext(ctx, query, mapping)
	if err != nil {
		logger.Error("MeetingRepository:SaveMapping:Error", "error", err, "meeting_id", mapping.MeetingID)
		return err
	}
	return nil
}

// SaveRegistrant upserts a cached join URL. Re-registering the same student
// on the same meeting overwrites instead of duplicating.
func (r *MeetingRepository) SaveRegistrant(ctx context.Context, record *entity.RegistrantRecord) error {
	query := `
		INSERT INTO meeting_registrants (id, meeting_id, email, join_url, created_at, updated_at)
		VALUES (:id, :meeting_id, :email, :join_url, NOW(), NOW())
		ON CONFLICT (meeting_id, email) DO UPDATE SET
			join_url = EXCLUDED.join_url,
			updated_at = NOW()`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	_, err := r.DB.NamedExecContext(ctx, query, record)
	if err != nil {
		logger.Error("MeetingRepository:SaveRegistrant:Error",
			"error", err, "meeting_id", record.MeetingID, "email", record.Email)
		return err
	}
	return nil
}

func (r *MeetingRepository) GetRegistrant(ctx context.Context, meetingID string, email string) (*entity.RegistrantRecord, error) {
	var record entity.RegistrantRecord
	query := `SELECT * FROM meeting_registrants WHERE meeting_id = $1 AND email = $2`
	err := r.DB.GetContext(ctx, &record, query, meetingID, email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("MeetingRepository:GetRegistrant:Error", "error", err, "meeting_id", meetingID)
		return nil, err
	}
	return &record, nil
}

// HasRegistrants reports whether any join URL has been cached for the
// meeting. Tells a finished registration run apart from one that has not
// happened yet.
func (r *MeetingRepository) HasRegistrants(ctx context.Context, meetingID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM meeting_registrants WHERE meeting_id = $1)`
	err := r.DB.GetContext(ctx, &exists, query, meetingID)
	if err != nil {
		logger.Error("MeetingRepository:HasRegistrants:Error", "error", err, "meeting_id", meetingID)
		return false, err
	}
	return exists, nil
}

// EnrolledStudents reads the active roster of a course from the LMS tables,
// leaving out the host so they are never registered on their own meeting.
func (r *MeetingRepository) EnrolledStudents(ctx context.Context, courseKey string, excludeUserID uuid.UUID) ([]entity.EnrolledStudent, error) {
	students := []entity.EnrolledStudent{}
	query := `
		SELECT u.id AS user_id, u.email, u.first_name, u.last_name
		FROM course_enrollments ce
		JOIN users u ON u.id = ce.user_id
		WHERE ce.course_key = $1
		  AND ce.is_active = TRUE
		  AND u.external_id <> $2
		ORDER BY u.id`
	err := r.DB.SelectContext(ctx, &students, query, courseKey, excludeUserID)
	if err != nil {
		logger.Error("MeetingRepository:EnrolledStudents:Error", "error", err, "course_key", courseKey)
		return nil, err
	}
	return students, nil
}
