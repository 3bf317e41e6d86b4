package services

import (
	"fmt"
	"log"
	"time"

	"admissions-portal-api/config"
	"admissions-portal-api/models"

	"gorm.io/gorm"
)

// DBNotificationSink stores notifications for the in-app feed and mirrors
// them to email on a best-effort basis.
type DBNotificationSink struct {
	db *gorm.DB
}

func NewDBNotificationSink(db *gorm.DB) *DBNotificationSink {
	return &DBNotificationSink{db: db}
}

func (s *DBNotificationSink) Send(userID int, title, message, severity string, relatedApplicationID *int) error {
	n := models.Notification{
		UserID:               userID,
		Title:                title,
		Message:              message,
		Type:                 severity,
		RelatedApplicationID: relatedApplicationID,
		IsRead:               false,
		CreateAt:             time.Now(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		return err
	}

	// Email mirror. Skipped silently when SMTP is not configured; any other
	// failure is logged but never bubbles up.
	var user models.User
	if err := s.db.Select("email", "user_fname").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		log.Printf("[notify] email skipped, user %d lookup failed: %v", userID, err)
		return nil
	}

	html := fmt.Sprintf(`<p>Dear %s,</p><p>%s</p><p>— Admissions Office</p>`, user.UserFname, message)
	if err := config.SendMail([]string{user.Email}, title, html); err != nil {
		log.Printf("[notify] email to %s failed: %v", user.Email, err)
	}
	return nil
}

// BroadcastToStudents creates the same notification for every active
// student. Used by the admin announcement endpoint.
func (s *DBNotificationSink) BroadcastToStudents(title, message, severity string) (int, error) {
	var students []models.User
	if err := s.db.Select("user_id").
		Where("role_id = ? AND delete_at IS NULL", models.RoleStudent).
		Find(&students).Error; err != nil {
		return 0, err
	}

	now := time.Now()
	rows := make([]models.Notification, 0, len(students))
	for _, student := range students {
		rows = append(rows, models.Notification{
			UserID:   student.UserID,
			Title:    title,
			Message:  message,
			Type:     severity,
			IsRead:   false,
			CreateAt: now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(rows, 200).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}
