package controllers

import (
	"net/http"

	"admissions-portal-api/config"
	"admissions-portal-api/models"

	"github.com/gin-gonic/gin"
)

// GET /admin/dashboard/stats
func GetDashboardStats(c *gin.Context) {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var byStatus []statusCount
	if err := config.DB.Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&byStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	var total int64
	config.DB.Model(&models.Application{}).
		Where("status != ?", models.StatusDeleted).
		Count(&total)

	var studentCount int64
	config.DB.Model(&models.User{}).
		Where("role_id = ? AND delete_at IS NULL", models.RoleStudent).
		Count(&studentCount)

	var recent []models.Application
	if err := config.DB.Preload("User").
		Where("status != ?", models.StatusDeleted).
		Order("submitted_at DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recent applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"total_applications":  total,
		"total_students":      studentCount,
		"by_status":           byStatus,
		"recent_applications": recent,
	})
}

// GET /dashboard/summary (student)
func GetStudentSummary(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var byStatus []statusCount
	if err := config.DB.Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ? AND status != ?", userID, models.StatusDeleted).
		Group("status").
		Find(&byStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load summary"})
		return
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = 0", userID).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"by_status":            byStatus,
		"unread_notifications": unread,
	})
}
