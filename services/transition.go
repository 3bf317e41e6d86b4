package services

import "admissions-portal-api/models"

// statusTransitions is the single source of truth for admin-driven status
// changes. Terminal statuses map to an empty set. Statuses missing from the
// map (including corrupt values) allow nothing.
var statusTransitions = map[string][]string{
	models.StatusSubmitted:          {models.StatusUnderReview},
	models.StatusUnderReview:        {models.StatusInterviewScheduled, models.StatusRejected},
	models.StatusInterviewScheduled: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:           {models.StatusWaitlisted, models.StatusEnrolled},
	models.StatusWaitlisted:         {models.StatusApproved, models.StatusRejected, models.StatusEnrolled},
	models.StatusRejected:           {},
	models.StatusEnrolled:           {},
}

// ValidateTransition reports whether an admin may move an application from
// current to requested. Self-loops are rejected; unknown current statuses
// fail closed.
func ValidateTransition(current, requested string) bool {
	if current == requested {
		return false
	}
	if !models.KnownStatus(requested) {
		return false
	}
	allowed, ok := statusTransitions[current]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == requested {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the admin targets reachable from current.
// Used by the admin UI to render the action menu.
func AllowedTransitions(current string) []string {
	allowed, ok := statusTransitions[current]
	if !ok {
		return nil
	}
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// Student self-service gates. These are deliberately separate from the
// transition table: edits and soft deletes are direct writes allowed only
// from a fixed set of source statuses.

// CanStudentEdit reports whether a student may still edit the application.
func CanStudentEdit(current string) bool {
	return current == models.StatusSubmitted || current == models.StatusUnderReview
}

// CanStudentDelete reports whether a student may soft-delete the application.
func CanStudentDelete(current string) bool {
	return current == models.StatusSubmitted
}

// NotificationTemplate is the per-status message sent to the owning student,
// both at creation time and on every transition.
type NotificationTemplate struct {
	Title    string
	Severity string // info|success|warning
}

var statusNotifications = map[string]NotificationTemplate{
	models.StatusSubmitted:          {Title: "Application Received", Severity: "info"},
	models.StatusUnderReview:        {Title: "Application Under Review", Severity: "info"},
	models.StatusInterviewScheduled: {Title: "Interview Scheduled", Severity: "success"},
	models.StatusApproved:           {Title: "Application Approved!", Severity: "success"},
	models.StatusRejected:           {Title: "Application Decision", Severity: "warning"},
	models.StatusWaitlisted:         {Title: "Application Waitlisted", Severity: "info"},
	models.StatusEnrolled:           {Title: "Welcome to Our University!", Severity: "success"},
}

// NotificationTemplateFor returns the template for a status, falling back to
// a generic info message for anything unrecognized.
func NotificationTemplateFor(status string) NotificationTemplate {
	if tpl, ok := statusNotifications[status]; ok {
		return tpl
	}
	return NotificationTemplate{Title: "Application Status Updated", Severity: "info"}
}
