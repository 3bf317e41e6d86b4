package models

import "time"

// Application statuses. The set is closed: every status column value must be
// one of these, and every change goes through the workflow engine.
const (
	StatusSubmitted          = "submitted"
	StatusUnderReview        = "under-review"
	StatusInterviewScheduled = "interview-scheduled"
	StatusApproved           = "approved"
	StatusRejected           = "rejected"
	StatusWaitlisted         = "waitlisted"
	StatusEnrolled           = "enrolled"
	StatusDeleted            = "deleted"
)

// Application represents one admission application tracked through the
// status lifecycle.
type Application struct {
	ApplicationID     int       `gorm:"primaryKey;column:application_id" json:"application_id"`
	ApplicationNumber string    `gorm:"column:application_number;unique" json:"application_number"`
	UserID            int       `gorm:"column:user_id" json:"user_id"`
	Status            string    `gorm:"column:status" json:"status"`
	Program           string    `gorm:"column:program" json:"program"`
	IntakeTerm        string    `gorm:"column:intake_term" json:"intake_term"`
	PersonalStatement *string   `gorm:"column:personal_statement" json:"personal_statement,omitempty"`
	Notes             *string   `gorm:"column:notes" json:"notes,omitempty"`
	SubmittedAt       time.Time `gorm:"column:submitted_at" json:"submitted_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

// KnownStatus reports whether s is a member of the closed status set.
// Anything else is treated as corrupt data and fails closed everywhere.
func KnownStatus(s string) bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusInterviewScheduled,
		StatusApproved, StatusRejected, StatusWaitlisted,
		StatusEnrolled, StatusDeleted:
		return true
	}
	return false
}

func (a *Application) IsDeleted() bool {
	return a.Status == StatusDeleted
}
