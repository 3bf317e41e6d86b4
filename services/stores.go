package services

import (
	"errors"
	"time"

	"admissions-portal-api/models"

	"gorm.io/gorm"
)

// GormWorkflowStores backs the workflow engine with the shared GORM
// connection. InTransaction scopes both stores to one database transaction.
type GormWorkflowStores struct {
	db *gorm.DB
}

func NewGormWorkflowStores(db *gorm.DB) *GormWorkflowStores {
	return &GormWorkflowStores{db: db}
}

func (s *GormWorkflowStores) Applications() ApplicationStore {
	return &gormApplicationStore{db: s.db}
}

func (s *GormWorkflowStores) History() HistoryStore {
	return &gormHistoryStore{db: s.db}
}

func (s *GormWorkflowStores) InTransaction(fn func(apps ApplicationStore, history HistoryStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormApplicationStore{db: tx}, &gormHistoryStore{db: tx})
	})
}

type gormApplicationStore struct {
	db *gorm.DB
}

func (s *gormApplicationStore) Insert(app *models.Application) error {
	return s.db.Create(app).Error
}

func (s *gormApplicationStore) Load(applicationID int) (*models.Application, error) {
	var app models.Application
	if err := s.db.Where("application_id = ?", applicationID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationMissing
		}
		return nil, err
	}
	return &app, nil
}

func (s *gormApplicationStore) CasUpdateStatus(applicationID int, expectedCurrent, newStatus string, ts time.Time) (bool, error) {
	res := s.db.Model(&models.Application{}).
		Where("application_id = ? AND status = ?", applicationID, expectedCurrent).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"updated_at": ts,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormApplicationStore) UpdateFields(applicationID int, updates map[string]interface{}) error {
	return s.db.Model(&models.Application{}).
		Where("application_id = ?", applicationID).
		Updates(updates).Error
}

type gormHistoryStore struct {
	db *gorm.DB
}

func (s *gormHistoryStore) Append(entry *models.ApplicationStatusHistory) error {
	return s.db.Create(entry).Error
}

func (s *gormHistoryStore) ListByApplication(applicationID int) ([]models.ApplicationStatusHistory, error) {
	var entries []models.ApplicationStatusHistory
	err := s.db.Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
