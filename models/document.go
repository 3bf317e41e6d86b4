package models

import "time"

// FileUpload represents the file_uploads table
type FileUpload struct {
	FileID       int        `gorm:"primaryKey;column:file_id" json:"file_id"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	StoredPath   string     `gorm:"column:stored_path" json:"stored_path"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	UploadedBy   int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Uploader User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// ApplicationDocument links an uploaded file to an application.
type ApplicationDocument struct {
	DocumentID     int       `gorm:"primaryKey;column:document_id" json:"document_id"`
	ApplicationID  int       `gorm:"column:application_id" json:"application_id"`
	FileID         int       `gorm:"column:file_id" json:"file_id"`
	DocumentTypeID int       `gorm:"column:document_type_id" json:"document_type_id"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`

	// Relations
	File         FileUpload   `gorm:"foreignKey:FileID" json:"file,omitempty"`
	DocumentType DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
}

// DocumentType represents document types for applications (transcript,
// recommendation letter, ...).
type DocumentType struct {
	DocumentTypeID   int        `gorm:"primaryKey;column:document_type_id" json:"document_type_id"`
	DocumentTypeName string     `gorm:"column:document_type_name" json:"document_type_name"`
	Code             string     `gorm:"column:code" json:"code"`
	Required         bool       `gorm:"column:required" json:"required"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (FileUpload) TableName() string {
	return "file_uploads"
}

func (ApplicationDocument) TableName() string {
	return "application_documents"
}

func (DocumentType) TableName() string {
	return "document_types"
}

// Helper methods for file validation
func (f *FileUpload) IsValidDocumentType() bool {
	validTypes := []string{
		"application/pdf",
		"image/jpeg",
		"image/png",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	for _, validType := range validTypes {
		if f.MimeType == validType {
			return true
		}
	}
	return false
}

func (f *FileUpload) GetFileSizeInMB() float64 {
	return float64(f.FileSize) / (1024 * 1024)
}
