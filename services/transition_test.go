package services

import (
	"testing"

	"admissions-portal-api/models"
)

var allStatuses = []string{
	models.StatusSubmitted,
	models.StatusUnderReview,
	models.StatusInterviewScheduled,
	models.StatusApproved,
	models.StatusRejected,
	models.StatusWaitlisted,
	models.StatusEnrolled,
	models.StatusDeleted,
}

func TestValidateTransitionAllowedPairs(t *testing.T) {
	valid := []struct{ current, requested string }{
		{models.StatusSubmitted, models.StatusUnderReview},
		{models.StatusUnderReview, models.StatusInterviewScheduled},
		{models.StatusUnderReview, models.StatusRejected},
		{models.StatusInterviewScheduled, models.StatusApproved},
		{models.StatusInterviewScheduled, models.StatusRejected},
		{models.StatusApproved, models.StatusWaitlisted},
		{models.StatusApproved, models.StatusEnrolled},
		{models.StatusWaitlisted, models.StatusApproved},
		{models.StatusWaitlisted, models.StatusRejected},
		{models.StatusWaitlisted, models.StatusEnrolled},
	}

	allowed := make(map[[2]string]bool, len(valid))
	for _, pair := range valid {
		allowed[[2]string{pair.current, pair.requested}] = true
		if !ValidateTransition(pair.current, pair.requested) {
			t.Errorf("expected %s -> %s to be valid", pair.current, pair.requested)
		}
	}

	// Everything outside the allowed set, including self-loops, must be
	// rejected.
	for _, current := range allStatuses {
		for _, requested := range allStatuses {
			if allowed[[2]string{current, requested}] {
				continue
			}
			if ValidateTransition(current, requested) {
				t.Errorf("expected %s -> %s to be invalid", current, requested)
			}
		}
	}
}

func TestValidateTransitionTerminalStatuses(t *testing.T) {
	for _, terminal := range []string{models.StatusRejected, models.StatusEnrolled} {
		for _, requested := range allStatuses {
			if ValidateTransition(terminal, requested) {
				t.Errorf("terminal status %s must not allow transition to %s", terminal, requested)
			}
		}
	}
}

func TestValidateTransitionUnknownStatusFailsClosed(t *testing.T) {
	if ValidateTransition("corrupted-value", models.StatusUnderReview) {
		t.Error("unknown current status must fail closed")
	}
	if ValidateTransition(models.StatusSubmitted, "nonsense") {
		t.Error("unknown requested status must be rejected")
	}
	if ValidateTransition("", "") {
		t.Error("empty statuses must be rejected")
	}
}

func TestAllowedTransitions(t *testing.T) {
	next := AllowedTransitions(models.StatusWaitlisted)
	if len(next) != 3 {
		t.Fatalf("expected 3 targets from waitlisted, got %v", next)
	}

	if got := AllowedTransitions(models.StatusRejected); len(got) != 0 {
		t.Errorf("expected no targets from rejected, got %v", got)
	}

	if got := AllowedTransitions("corrupted-value"); got != nil {
		t.Errorf("expected nil for unknown status, got %v", got)
	}
}

func TestStudentGates(t *testing.T) {
	for _, status := range allStatuses {
		wantEdit := status == models.StatusSubmitted || status == models.StatusUnderReview
		if got := CanStudentEdit(status); got != wantEdit {
			t.Errorf("CanStudentEdit(%s) = %v, want %v", status, got, wantEdit)
		}

		wantDelete := status == models.StatusSubmitted
		if got := CanStudentDelete(status); got != wantDelete {
			t.Errorf("CanStudentDelete(%s) = %v, want %v", status, got, wantDelete)
		}
	}
}

func TestNotificationTemplates(t *testing.T) {
	cases := []struct {
		status   string
		title    string
		severity string
	}{
		{models.StatusSubmitted, "Application Received", "info"},
		{models.StatusUnderReview, "Application Under Review", "info"},
		{models.StatusInterviewScheduled, "Interview Scheduled", "success"},
		{models.StatusApproved, "Application Approved!", "success"},
		{models.StatusRejected, "Application Decision", "warning"},
		{models.StatusWaitlisted, "Application Waitlisted", "info"},
		{models.StatusEnrolled, "Welcome to Our University!", "success"},
		{"something-else", "Application Status Updated", "info"},
	}

	for _, tc := range cases {
		tpl := NotificationTemplateFor(tc.status)
		if tpl.Title != tc.title {
			t.Errorf("template title for %s = %q, want %q", tc.status, tpl.Title, tc.title)
		}
		if tpl.Severity != tc.severity {
			t.Errorf("template severity for %s = %q, want %q", tc.status, tpl.Severity, tc.severity)
		}
	}
}
