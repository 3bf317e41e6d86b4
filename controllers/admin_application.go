package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"admissions-portal-api/config"
	"admissions-portal-api/models"
	"admissions-portal-api/services"

	"github.com/gin-gonic/gin"
)

// GET /admin/applications
// Supports ?status=, ?program=, ?q= (application number or applicant email),
// ?limit=, ?offset=.
func AdminListApplications(c *gin.Context) {
	db := getDB()

	limit := 20
	offset := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	q := db.Model(&models.Application{}).Preload("User")

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		if !models.KnownStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
			return
		}
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status != ?", models.StatusDeleted)
	}

	if program := strings.TrimSpace(c.Query("program")); program != "" {
		q = q.Where("program = ?", program)
	}

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + search + "%"
		q = q.Where("application_number LIKE ? OR user_id IN (?)",
			like,
			db.Model(&models.User{}).Select("user_id").Where("email LIKE ?", like))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count applications"})
		return
	}

	var applications []models.Application
	if err := q.Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"total":        total,
		"applications": applications,
	})
}

// GET /admin/applications/:id/details
func AdminGetApplicationDetails(c *gin.Context) {
	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var application models.Application
	if err := getDB().Preload("User").
		Where("application_id = ?", aid).
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
	if err := getDB().
		Where("application_id = ?", aid).
		Preload("DocumentType").
		Preload("File").
		Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"application":         application,
		"history":             history,
		"documents":           documents,
		"allowed_transitions": services.AllowedTransitions(application.Status),
	})
}

// PUT /admin/applications/:id/status
// The only admin path that mutates an application's status; everything runs
// through the workflow engine.
func AdminUpdateApplicationStatus(c *gin.Context) {
	actorID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	type StatusUpdateRequest struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflowEngine().ApplyStatusChange(aid, strings.TrimSpace(req.Status), actorID, ptr(strings.TrimSpace(req.Notes)))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /admin/applications/bulk-status
// Applies the same transition to many applications; per-id outcomes are
// reported so the caller can show partial success.
func AdminBulkUpdateApplicationStatus(c *gin.Context) {
	actorID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type BulkStatusRequest struct {
		ApplicationIDs []int  `json:"application_ids" binding:"required,min=1"`
		Status         string `json:"status" binding:"required"`
		Notes          string `json:"notes"`
	}

	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := workflowEngine().BulkApplyStatusChange(
		req.ApplicationIDs,
		strings.TrimSpace(req.Status),
		actorID,
		ptr(strings.TrimSpace(req.Notes)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Bulk status update processed",
		"result":  result,
	})
}

// GET /admin/applications/:id/history
func AdminGetStatusHistory(c *gin.Context) {
	aid, err := strconv.Atoi(c.Param("id"))
	if err != nil || aid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var exists int64
	config.DB.Model(&models.Application{}).
		Where("application_id = ?", aid).
		Count(&exists)
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	history, err := workflowEngine().StatusHistory(aid)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
	})
}
