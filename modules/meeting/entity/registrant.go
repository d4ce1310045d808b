package entity

import "zoom-lms-api/core/entity"

// RegistrantRecord caches the per-student join URL handed out by the
// provider when a registrant was approved on a restricted meeting.
type RegistrantRecord struct {
	MeetingID string `db:"meeting_id" json:"meeting_id"`
	Email     string `db:"email" json:"email"`
	JoinURL   string `db:"join_url" json:"join_url"`
	entity.BaseEntity
}

// EnrolledStudent is one row of the course roster as the LMS stores it.
type EnrolledStudent struct {
	UserID    int64  `db:"user_id" json:"user_id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
