package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"admissions-portal-api/models"
)

// ErrApplicationMissing is returned by ApplicationStore.Load when no row
// exists for the id.
var ErrApplicationMissing = errors.New("application not found")

// ApplicationStore is the persistence boundary for application records.
type ApplicationStore interface {
	Insert(app *models.Application) error
	Load(applicationID int) (*models.Application, error)
	// CasUpdateStatus performs a conditional status write: the row is
	// updated only while its status still equals expectedCurrent. Returns
	// false when zero rows matched, which means another request won.
	CasUpdateStatus(applicationID int, expectedCurrent, newStatus string, ts time.Time) (bool, error)
	UpdateFields(applicationID int, updates map[string]interface{}) error
}

// HistoryStore is the append-only audit trail boundary.
type HistoryStore interface {
	Append(entry *models.ApplicationStatusHistory) error
	ListByApplication(applicationID int) ([]models.ApplicationStatusHistory, error)
}

// WorkflowStores bundles the two stores and provides a transaction scope so
// the status write and its history entry commit or roll back as one unit.
type WorkflowStores interface {
	Applications() ApplicationStore
	History() HistoryStore
	InTransaction(fn func(apps ApplicationStore, history HistoryStore) error) error
}

// NotificationSink queues a message to a user. Send failures never fail the
// surrounding workflow operation.
type NotificationSink interface {
	Send(userID int, title, message, severity string, relatedApplicationID *int) error
}

// Result is the caller-facing outcome of a workflow operation, shaped for
// direct JSON serialization by the HTTP layer.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WorkflowEngine validates and applies application status transitions,
// writes the audit trail and emits notifications. It is the only code path
// allowed to mutate an application's status.
type WorkflowEngine struct {
	stores WorkflowStores
	notify NotificationSink
}

func NewWorkflowEngine(stores WorkflowStores, notify NotificationSink) *WorkflowEngine {
	return &WorkflowEngine{stores: stores, notify: notify}
}

// ApplyStatusChange performs a single admin-initiated status change:
// validate, persist (CAS), audit, notify.
func (e *WorkflowEngine) ApplyStatusChange(applicationID int, requestedStatus string, actorID int, notes *string) (*Result, error) {
	app, err := e.stores.Applications().Load(applicationID)
	if err != nil {
		if errors.Is(err, ErrApplicationMissing) {
			return nil, notFoundError(applicationID)
		}
		return nil, persistenceError("load application", err)
	}

	if !ValidateTransition(app.Status, requestedStatus) {
		return nil, invalidTransitionError(app.Status, requestedStatus)
	}

	now := time.Now()
	err = e.stores.InTransaction(func(apps ApplicationStore, history HistoryStore) error {
		ok, casErr := apps.CasUpdateStatus(applicationID, app.Status, requestedStatus, now)
		if casErr != nil {
			return persistenceError("update application status", casErr)
		}
		if !ok {
			return conflictError(app.Status, requestedStatus)
		}

		oldStatus := app.Status
		entry := &models.ApplicationStatusHistory{
			ApplicationID: applicationID,
			OldStatus:     &oldStatus,
			NewStatus:     requestedStatus,
			ChangedBy:     actorID,
			Reason:        notes,
			CreatedAt:     now,
		}
		if appendErr := history.Append(entry); appendErr != nil {
			return persistenceError("write status history", appendErr)
		}

		// Keep the latest admin note on the record itself; the full trail
		// lives in the history rows.
		if notes != nil && *notes != "" {
			if updErr := apps.UpdateFields(applicationID, map[string]interface{}{"notes": *notes}); updErr != nil {
				return persistenceError("update application notes", updErr)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := AsWorkflowError(err); ok {
			return nil, err
		}
		return nil, persistenceError("commit status change", err)
	}

	e.notifyStatusChange(app, requestedStatus)

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Application status updated to '%s'", requestedStatus),
		Data: map[string]interface{}{
			"application_id": applicationID,
			"status":         requestedStatus,
		},
	}, nil
}

// ApplicationEdit carries the fields a student may change while the
// application is still editable.
type ApplicationEdit struct {
	Program           *string
	IntakeTerm        *string
	PersonalStatement *string
}

// StudentEdit applies a student's edit to their own application. Editing is
// allowed only while the status is submitted or under-review. An edit while
// under-review is recorded as a self-loop history entry so reviewers can see
// the application changed underneath them.
func (e *WorkflowEngine) StudentEdit(applicationID, studentID int, edit ApplicationEdit) (*Result, error) {
	app, err := e.loadOwned(applicationID, studentID)
	if err != nil {
		return nil, err
	}

	if !CanStudentEdit(app.Status) {
		return nil, forbiddenError("edited", app.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if edit.Program != nil {
		updates["program"] = *edit.Program
	}
	if edit.IntakeTerm != nil {
		updates["intake_term"] = *edit.IntakeTerm
	}
	if edit.PersonalStatement != nil {
		updates["personal_statement"] = *edit.PersonalStatement
	}

	err = e.stores.InTransaction(func(apps ApplicationStore, history HistoryStore) error {
		// Re-read inside the transaction: an admin transition racing this
		// edit must not let a stale write land under the wrong status.
		current, loadErr := apps.Load(applicationID)
		if loadErr != nil {
			return persistenceError("load application", loadErr)
		}
		if current.Status != app.Status {
			return conflictError(current.Status, "")
		}

		if updErr := apps.UpdateFields(applicationID, updates); updErr != nil {
			return persistenceError("update application", updErr)
		}
		if app.Status == models.StatusUnderReview {
			status := app.Status
			reason := "Application updated by student"
			entry := &models.ApplicationStatusHistory{
				ApplicationID: applicationID,
				OldStatus:     &status,
				NewStatus:     status,
				ChangedBy:     studentID,
				Reason:        &reason,
				CreatedAt:     now,
			}
			if appendErr := history.Append(entry); appendErr != nil {
				return persistenceError("write status history", appendErr)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := AsWorkflowError(err); ok {
			return nil, err
		}
		return nil, persistenceError("commit application edit", err)
	}

	return &Result{
		Success: true,
		Message: "Application updated successfully",
	}, nil
}

// StudentDelete soft-deletes a student's own application. Only applications
// still in submitted may be deleted; the record keeps living under the
// deleted status so the audit trail stays intact.
func (e *WorkflowEngine) StudentDelete(applicationID, studentID int) (*Result, error) {
	app, err := e.loadOwned(applicationID, studentID)
	if err != nil {
		return nil, err
	}

	if !CanStudentDelete(app.Status) {
		return nil, forbiddenError("deleted", app.Status)
	}

	now := time.Now()
	err = e.stores.InTransaction(func(apps ApplicationStore, history HistoryStore) error {
		ok, casErr := apps.CasUpdateStatus(applicationID, app.Status, models.StatusDeleted, now)
		if casErr != nil {
			return persistenceError("delete application", casErr)
		}
		if !ok {
			return conflictError(app.Status, models.StatusDeleted)
		}

		oldStatus := app.Status
		reason := "Application deleted by student"
		entry := &models.ApplicationStatusHistory{
			ApplicationID: applicationID,
			OldStatus:     &oldStatus,
			NewStatus:     models.StatusDeleted,
			ChangedBy:     studentID,
			Reason:        &reason,
			CreatedAt:     now,
		}
		if appendErr := history.Append(entry); appendErr != nil {
			return persistenceError("write status history", appendErr)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsWorkflowError(err); ok {
			return nil, err
		}
		return nil, persistenceError("commit application delete", err)
	}

	e.sendNotification(app.UserID, "Application Deleted",
		fmt.Sprintf("Your application %s has been deleted.", app.ApplicationNumber),
		"warning", &app.ApplicationID)

	return &Result{
		Success: true,
		Message: "Application deleted successfully",
	}, nil
}

// CreateApplication persists a new application together with its initial
// history entry (old status is null) in one transaction, then queues the
// "Application Received" notification. An application row must never exist
// without its creation audit entry.
func (e *WorkflowEngine) CreateApplication(app *models.Application, actorID int) error {
	err := e.stores.InTransaction(func(apps ApplicationStore, history HistoryStore) error {
		if insErr := apps.Insert(app); insErr != nil {
			return persistenceError("create application", insErr)
		}

		entry := &models.ApplicationStatusHistory{
			ApplicationID: app.ApplicationID,
			OldStatus:     nil,
			NewStatus:     app.Status,
			ChangedBy:     actorID,
			CreatedAt:     app.SubmittedAt,
		}
		if appendErr := history.Append(entry); appendErr != nil {
			return persistenceError("write status history", appendErr)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsWorkflowError(err); ok {
			return err
		}
		return persistenceError("commit application creation", err)
	}

	tpl := NotificationTemplateFor(app.Status)
	e.sendNotification(app.UserID, tpl.Title,
		fmt.Sprintf("Your application %s has been received and will be reviewed by our admissions team.", app.ApplicationNumber),
		tpl.Severity, &app.ApplicationID)
	return nil
}

// BulkItemResult is the per-id outcome of a bulk status update.
type BulkItemResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BulkResult aggregates a bulk status update. One id failing never aborts
// the rest.
type BulkResult struct {
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	Results    map[int]BulkItemResult `json:"results"`
}

// BulkApplyStatusChange applies the same transition to every id
// independently through ApplyStatusChange.
func (e *WorkflowEngine) BulkApplyStatusChange(applicationIDs []int, requestedStatus string, actorID int, notes *string) *BulkResult {
	out := &BulkResult{Results: make(map[int]BulkItemResult, len(applicationIDs))}
	for _, id := range applicationIDs {
		res, err := e.ApplyStatusChange(id, requestedStatus, actorID, notes)
		if err != nil {
			out.Failed++
			msg := err.Error()
			if we, ok := AsWorkflowError(err); ok {
				msg = we.Message
			}
			out.Results[id] = BulkItemResult{Success: false, Message: msg}
			continue
		}
		out.Successful++
		out.Results[id] = BulkItemResult{Success: true, Message: res.Message}
	}
	return out
}

// StatusHistory returns the ordered audit trail for an application.
func (e *WorkflowEngine) StatusHistory(applicationID int) ([]models.ApplicationStatusHistory, error) {
	entries, err := e.stores.History().ListByApplication(applicationID)
	if err != nil {
		return nil, persistenceError("load status history", err)
	}
	return entries, nil
}

func (e *WorkflowEngine) loadOwned(applicationID, studentID int) (*models.Application, error) {
	app, err := e.stores.Applications().Load(applicationID)
	if err != nil {
		if errors.Is(err, ErrApplicationMissing) {
			return nil, notFoundError(applicationID)
		}
		return nil, persistenceError("load application", err)
	}
	// Hide other students' applications behind not-found, same as listing.
	if app.UserID != studentID {
		return nil, notFoundError(applicationID)
	}
	if app.IsDeleted() {
		return nil, notFoundError(applicationID)
	}
	return app, nil
}

func (e *WorkflowEngine) notifyStatusChange(app *models.Application, newStatus string) {
	tpl := NotificationTemplateFor(newStatus)
	message := fmt.Sprintf("The status of your application %s has been updated to '%s'.", app.ApplicationNumber, newStatus)
	e.sendNotification(app.UserID, tpl.Title, message, tpl.Severity, &app.ApplicationID)
}

func (e *WorkflowEngine) sendNotification(userID int, title, message, severity string, relatedApplicationID *int) {
	if e.notify == nil {
		return
	}
	if err := e.notify.Send(userID, title, message, severity, relatedApplicationID); err != nil {
		// Best effort: a missed notification must not fail the operation.
		log.Printf("[workflow] notification to user %d failed: %v", userID, err)
	}
}
