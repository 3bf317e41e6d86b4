package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"admissions-portal-api/config"
	"admissions-portal-api/models"

	"github.com/gin-gonic/gin"
)

// GET /admin/students
func AdminListStudents(c *gin.Context) {
	db := getDB()

	limit := 20
	offset := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	q := db.Model(&models.User{}).
		Where("role_id = ? AND delete_at IS NULL", models.RoleStudent)

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + search + "%"
		q = q.Where("email LIKE ? OR user_fname LIKE ? OR user_lname LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count students"})
		return
	}

	var students []models.User
	if err := q.Order("create_at DESC").Limit(limit).Offset(offset).Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load students"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    total,
		"students": students,
	})
}

// GET /admin/students/:id
func AdminGetStudent(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("id"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var student models.User
	if err := getDB().Preload("Role").
		Where("user_id = ? AND role_id = ?", uid, models.RoleStudent).
		First(&student).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	var applications []models.Application
	if err := getDB().
		Where("user_id = ?", uid).
		Order("submitted_at DESC").
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"student":      student,
		"applications": applications,
	})
}

// DELETE /admin/students/:id
// Soft-deactivates the account. Applications and history stay untouched.
func AdminDeactivateStudent(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("id"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var student models.User
	if err := getDB().
		Where("user_id = ? AND role_id = ? AND delete_at IS NULL", uid, models.RoleStudent).
		First(&student).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&student).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate student"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student account deactivated",
	})
}

// POST /admin/students/:id/reactivate
func AdminReactivateStudent(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("id"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	res := config.DB.Model(&models.User{}).
		Where("user_id = ? AND role_id = ? AND delete_at IS NOT NULL", uid, models.RoleStudent).
		Updates(map[string]interface{}{"delete_at": nil, "update_at": time.Now()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reactivate student"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student account reactivated",
	})
}
