package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"admissions-portal-api/config"
	"admissions-portal-api/models"
	"admissions-portal-api/services"
	"admissions-portal-api/utils"

	"github.com/gin-gonic/gin"
)

// CreateApplication submits a new admission application for the current
// student. Every application starts in 'submitted'; the workflow engine
// records the initial history entry and the received notification.
func CreateApplication(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type CreateApplicationRequest struct {
		Program           string  `json:"program" binding:"required"`
		IntakeTerm        string  `json:"intake_term" binding:"required"`
		PersonalStatement *string `json:"personal_statement"`
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	application := models.Application{
		ApplicationNumber: generateApplicationNumber(),
		UserID:            userID,
		Status:            models.StatusSubmitted,
		Program:           utils.SanitizeInput(req.Program),
		IntakeTerm:        utils.SanitizeInput(req.IntakeTerm),
		PersonalStatement: req.PersonalStatement,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}

	if err := workflowEngine().CreateApplication(&application, userID); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Application submitted successfully",
		"application": application,
	})
}

// GetMyApplications lists the current student's applications, newest first.
// Soft-deleted applications are hidden.
func GetMyApplications(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var applications []models.Application
	if err := config.DB.
		Where("user_id = ? AND status != ?", userID, models.StatusDeleted).
		Order("submitted_at DESC").
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": applications,
	})
}

// GetApplication returns one of the current student's applications together
// with its status history and attached documents.
func GetApplication(c *gin.Context) {
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

	history, err := workflowEngine().StatusHistory(aid)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	var documents []models.ApplicationDocument
	if err := config.DB.
		Where("application_id = ?", aid).
		Preload("DocumentType").
		Preload("File").
		Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"application": application,
		"history":     history,
		"documents":   documents,
		"editable":    services.CanStudentEdit(application.Status),
		"deletable":   services.CanStudentDelete(application.Status),
	})
}

// UpdateApplication edits the current student's application through the
// self-edit gate.
func UpdateApplication(c *gin.Context) {
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

	type UpdateApplicationRequest struct {
		Program           *string `json:"program"`
		IntakeTerm        *string `json:"intake_term"`
		PersonalStatement *string `json:"personal_statement"`
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edit := services.ApplicationEdit{
		PersonalStatement: req.PersonalStatement,
	}
	if req.Program != nil {
		program := utils.SanitizeInput(*req.Program)
		edit.Program = &program
	}
	if req.IntakeTerm != nil {
		term := utils.SanitizeInput(*req.IntakeTerm)
		edit.IntakeTerm = &term
	}

	result, err := workflowEngine().StudentEdit(aid, userID, edit)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteApplication soft-deletes the current student's application through
// the delete gate.
func DeleteApplication(c *gin.Context) {
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

	result, err := workflowEngine().StudentDelete(aid, userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// generateApplicationNumber builds a human-readable number like
// ADM-2026-0042. The sequence is per calendar year; concurrent collisions
// fall back to a random suffix.
func generateApplicationNumber() string {
	year := time.Now().Format("2006")
	prefixYearLike := fmt.Sprintf("ADM-%s%%", year)

	var count int64
	config.DB.Model(&models.Application{}).
		Where("application_number LIKE ?", prefixYearLike).
		Count(&count)

	for i := int64(1); i <= 10; i++ {
		potentialNumber := fmt.Sprintf("ADM-%s-%04d", year, count+i)

		var existing int64
		config.DB.Model(&models.Application{}).
			Where("application_number = ?", potentialNumber).
			Count(&existing)

		if existing == 0 {
			return potentialNumber
		}
	}

	// Several writers racing on the same sequence; give up and randomize.
	bytes := make([]byte, 3)
	rand.Read(bytes)
	randomSuffix := strings.ToUpper(hex.EncodeToString(bytes))
	return fmt.Sprintf("ADM-%s-R-%s", year, randomSuffix)
}
