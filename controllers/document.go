package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"admissions-portal-api/config"
	"admissions-portal-api/models"
	"admissions-portal-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSizeBytes = 10 * 1024 * 1024 // 10 MB

func uploadRoot() string {
	root := os.Getenv("UPLOAD_PATH")
	if root == "" {
		root = "./uploads"
	}
	return root
}

// POST /applications/:id/documents
// Students may attach documents only while the application is still editable.
func UploadDocument(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var application models.Application
	if err := config.DB.
		Where("application_id = ? AND user_id = ? AND status != ?", aid, userID, models.StatusDeleted).
		First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if !services.CanStudentEdit(application.Status) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "Documents cannot be added at the current status",
			"current_status": application.Status,
		})
		return
	}

	docTypeID, err := strconv.Atoi(c.PostForm("document_type_id"))
	if err != nil || docTypeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document type"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.
		Where("document_type_id = ? AND delete_at IS NULL", docTypeID).
		First(&docType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown document type"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds 10MB limit"})
		return
	}

	upload := models.FileUpload{
		OriginalName: filepath.Base(fileHeader.Filename),
		FileSize:     fileHeader.Size,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		UploadedBy:   userID,
		UploadedAt:   time.Now(),
	}
	if !upload.IsValidDocumentType() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	storedName := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	storedDir := filepath.Join(uploadRoot(), fmt.Sprintf("application_%d", aid))
	if err := os.MkdirAll(storedDir, os.ModePerm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}
	upload.StoredPath = filepath.Join(storedDir, storedName)

	if err := c.SaveUploadedFile(fileHeader, upload.StoredPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	tx := config.DB.Begin()
	if err := tx.Create(&upload).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file record"})
		return
	}

	document := models.ApplicationDocument{
		ApplicationID:  aid,
		FileID:         upload.FileID,
		DocumentTypeID: docTypeID,
		Description:    ptr(c.PostForm("description")),
		CreatedAt:      time.Now(),
	}
	if err := tx.Create(&document).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach document"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Document uploaded successfully",
		"document": document,
	})
}

// GET /applications/:id/documents
func GetDocuments(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	roleID, _ := getCurrentRoleID(c)

	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	q := config.DB.Where("application_id = ?", aid)
	if roleID != models.RoleAdmin {
		var owned int64
		config.DB.Model(&models.Application{}).
			Where("application_id = ? AND user_id = ?", aid, userID).
			Count(&owned)
		if owned == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
	}

	var documents []models.ApplicationDocument
	if err := q.Preload("DocumentType").Preload("File").Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
	})
}

// GET /documents/download/:document_id
func DownloadDocument(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	roleID, _ := getCurrentRoleID(c)

	did, err := strconv.Atoi(c.Param("document_id"))
	if err != nil || did <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	var document models.ApplicationDocument
	if err := config.DB.Preload("File").
		Where("document_id = ?", did).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	if roleID != models.RoleAdmin {
		var owned int64
		config.DB.Model(&models.Application{}).
			Where("application_id = ? AND user_id = ?", document.ApplicationID, userID).
			Count(&owned)
		if owned == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
	}

	c.FileAttachment(document.File.StoredPath, document.File.OriginalName)
}

// DELETE /documents/:document_id
// Only the owner may remove a document, and only while the application is
// editable.
func DeleteDocument(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	did, err := strconv.Atoi(c.Param("document_id"))
	if err != nil || did <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	var document models.ApplicationDocument
	if err := config.DB.Preload("File").
		Where("document_id = ?", did).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	var application models.Application
	if err := config.DB.
		Where("application_id = ? AND user_id = ?", document.ApplicationID, userID).
		First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	if !services.CanStudentEdit(application.Status) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "Documents cannot be removed at the current status",
			"current_status": application.Status,
		})
		return
	}

	tx := config.DB.Begin()
	if err := tx.Delete(&document).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	now := time.Now()
	if err := tx.Model(&models.FileUpload{}).
		Where("file_id = ?", document.FileID).
		Update("delete_at", now).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Document deleted successfully",
	})
}

// GET /documents/types
func GetDocumentTypes(c *gin.Context) {
	var types []models.DocumentType
	if err := config.DB.Where("delete_at IS NULL").Find(&types).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_types": types})
}
