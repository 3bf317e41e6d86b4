package controllers

import (
	"net/http"

	"admissions-portal-api/config"
	"admissions-portal-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func getDB() *gorm.DB {
	return config.DB
}

func getCurrentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func getCurrentRoleID(c *gin.Context) (int, bool) {
	v, exists := c.Get("roleID")
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// workflowEngine wires the status workflow engine to the shared DB
// connection. Controllers are the only place this wiring happens; the engine
// itself never touches gin or config.
func workflowEngine() *services.WorkflowEngine {
	return services.NewWorkflowEngine(
		services.NewGormWorkflowStores(config.DB),
		services.NewDBNotificationSink(config.DB),
	)
}

// respondWorkflowError maps engine error kinds onto HTTP statuses and the
// standard {success, message} envelope.
func respondWorkflowError(c *gin.Context, err error) {
	we, ok := services.AsWorkflowError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch we.Kind {
	case services.ErrKindNotFound:
		status = http.StatusNotFound
	case services.ErrKindInvalidTransition:
		status = http.StatusBadRequest
	case services.ErrKindForbidden:
		status = http.StatusForbidden
	case services.ErrKindConflict:
		status = http.StatusConflict
	}

	body := gin.H{"success": false, "message": we.Message, "error_kind": string(we.Kind)}
	if we.CurrentStatus != "" {
		body["current_status"] = we.CurrentStatus
	}
	if we.RequestedStatus != "" {
		body["requested_status"] = we.RequestedStatus
	}
	c.JSON(status, body)
}

func ptr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
