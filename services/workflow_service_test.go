package services

import (
	"errors"
	"testing"
	"time"

	"admissions-portal-api/models"
)

// fakeStores is an in-memory WorkflowStores. InTransaction snapshots state
// before running fn and restores it when fn fails, mirroring a database
// rollback.
type fakeStores struct {
	apps    map[int]*models.Application
	history []models.ApplicationStatusHistory
	nextID  int

	afterLoad func(*fakeStores) // simulates a concurrent writer
	appendErr error
}

func newFakeStores(apps ...*models.Application) *fakeStores {
	f := &fakeStores{apps: make(map[int]*models.Application)}
	for _, app := range apps {
		f.apps[app.ApplicationID] = app
		if app.ApplicationID > f.nextID {
			f.nextID = app.ApplicationID
		}
	}
	return f
}

func (f *fakeStores) Applications() ApplicationStore { return &fakeAppStore{f} }
func (f *fakeStores) History() HistoryStore          { return &fakeHistoryStore{f} }

func (f *fakeStores) InTransaction(fn func(apps ApplicationStore, history HistoryStore) error) error {
	snapApps := make(map[int]*models.Application, len(f.apps))
	for id, app := range f.apps {
		clone := *app
		snapApps[id] = &clone
	}
	snapHistory := make([]models.ApplicationStatusHistory, len(f.history))
	copy(snapHistory, f.history)

	if err := fn(&fakeAppStore{f}, &fakeHistoryStore{f}); err != nil {
		f.apps = snapApps
		f.history = snapHistory
		return err
	}
	return nil
}

type fakeAppStore struct {
	f *fakeStores
}

func (s *fakeAppStore) Insert(app *models.Application) error {
	if app.ApplicationID == 0 {
		s.f.nextID++
		app.ApplicationID = s.f.nextID
	}
	clone := *app
	s.f.apps[app.ApplicationID] = &clone
	return nil
}

func (s *fakeAppStore) Load(applicationID int) (*models.Application, error) {
	app, ok := s.f.apps[applicationID]
	if !ok {
		return nil, ErrApplicationMissing
	}
	clone := *app
	if s.f.afterLoad != nil {
		hook := s.f.afterLoad
		s.f.afterLoad = nil
		hook(s.f)
	}
	return &clone, nil
}

func (s *fakeAppStore) CasUpdateStatus(applicationID int, expectedCurrent, newStatus string, ts time.Time) (bool, error) {
	app, ok := s.f.apps[applicationID]
	if !ok || app.Status != expectedCurrent {
		return false, nil
	}
	app.Status = newStatus
	app.UpdatedAt = ts
	return true, nil
}

func (s *fakeAppStore) UpdateFields(applicationID int, updates map[string]interface{}) error {
	app, ok := s.f.apps[applicationID]
	if !ok {
		return errors.New("no such application")
	}
	if v, ok := updates["program"]; ok {
		app.Program = v.(string)
	}
	if v, ok := updates["intake_term"]; ok {
		app.IntakeTerm = v.(string)
	}
	if v, ok := updates["personal_statement"]; ok {
		stmt := v.(string)
		app.PersonalStatement = &stmt
	}
	if v, ok := updates["updated_at"]; ok {
		app.UpdatedAt = v.(time.Time)
	}
	if v, ok := updates["notes"]; ok {
		note := v.(string)
		app.Notes = &note
	}
	return nil
}

type fakeHistoryStore struct {
	f *fakeStores
}

func (s *fakeHistoryStore) Append(entry *models.ApplicationStatusHistory) error {
	if s.f.appendErr != nil {
		return s.f.appendErr
	}
	s.f.history = append(s.f.history, *entry)
	return nil
}

func (s *fakeHistoryStore) ListByApplication(applicationID int) ([]models.ApplicationStatusHistory, error) {
	var out []models.ApplicationStatusHistory
	for _, entry := range s.f.history {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type sentNotification struct {
	UserID   int
	Title    string
	Message  string
	Severity string
}

type fakeSink struct {
	sent    []sentNotification
	sendErr error
}

func (s *fakeSink) Send(userID int, title, message, severity string, relatedApplicationID *int) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentNotification{UserID: userID, Title: title, Message: message, Severity: severity})
	return nil
}

func testApp(id, userID int, status string) *models.Application {
	return &models.Application{
		ApplicationID:     id,
		ApplicationNumber: "ADM-2026-0001",
		UserID:            userID,
		Status:            status,
		Program:           "Computer Science",
		IntakeTerm:        "Fall 2026",
		SubmittedAt:       time.Now().Add(-time.Hour),
		UpdatedAt:         time.Now().Add(-time.Hour),
	}
}

func expectKind(t *testing.T, err error, kind ErrorKind) *WorkflowError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	we, ok := AsWorkflowError(err)
	if !ok {
		t.Fatalf("expected WorkflowError, got %T: %v", err, err)
	}
	if we.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, we.Kind, we.Message)
	}
	return we
}

func TestApplyStatusChangeSuccess(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	result, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected success result")
	}

	if got := stores.apps[1].Status; got != models.StatusUnderReview {
		t.Errorf("application status = %s, want %s", got, models.StatusUnderReview)
	}

	if len(stores.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(stores.history))
	}
	entry := stores.history[0]
	if entry.OldStatus == nil || *entry.OldStatus != models.StatusSubmitted {
		t.Errorf("history old status = %v, want submitted", entry.OldStatus)
	}
	if entry.NewStatus != models.StatusUnderReview {
		t.Errorf("history new status = %s, want under-review", entry.NewStatus)
	}
	if entry.ChangedBy != 99 {
		t.Errorf("history actor = %d, want 99", entry.ChangedBy)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Title != "Application Under Review" {
		t.Errorf("notification title = %q", sink.sent[0].Title)
	}
	if sink.sent[0].Severity != "info" {
		t.Errorf("notification severity = %q", sink.sent[0].Severity)
	}
	if sink.sent[0].UserID != 10 {
		t.Errorf("notification went to user %d, want 10", sink.sent[0].UserID)
	}
}

func TestApplyStatusChangeInvalidTransition(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusRejected))
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	_, err := engine.ApplyStatusChange(1, models.StatusApproved, 99, nil)
	we := expectKind(t, err, ErrKindInvalidTransition)

	if we.CurrentStatus != models.StatusRejected || we.RequestedStatus != models.StatusApproved {
		t.Errorf("error payload = (%s, %s), want (rejected, approved)", we.CurrentStatus, we.RequestedStatus)
	}

	if stores.apps[1].Status != models.StatusRejected {
		t.Error("status must be unchanged after invalid transition")
	}
	if len(stores.history) != 0 {
		t.Error("history must be unchanged after invalid transition")
	}
	if len(sink.sent) != 0 {
		t.Error("no notification expected after invalid transition")
	}
}

func TestApplyStatusChangeNotFound(t *testing.T) {
	engine := NewWorkflowEngine(newFakeStores(), &fakeSink{})

	_, err := engine.ApplyStatusChange(42, models.StatusUnderReview, 99, nil)
	expectKind(t, err, ErrKindNotFound)
}

func TestApplyStatusChangeConflictOnStaleStatus(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	// A concurrent request wins between our load and our conditional write.
	stores.afterLoad = func(f *fakeStores) {
		f.apps[1].Status = models.StatusUnderReview
	}
	engine := NewWorkflowEngine(stores, &fakeSink{})

	_, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, nil)
	expectKind(t, err, ErrKindConflict)

	// The winner's status stands; the loser appended nothing.
	if stores.apps[1].Status != models.StatusUnderReview {
		t.Errorf("status = %s, want the concurrent winner's under-review", stores.apps[1].Status)
	}
	if len(stores.history) != 0 {
		t.Error("loser must not append history")
	}
}

func TestApplyStatusChangeHistoryFailureRollsBack(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	stores.appendErr = errors.New("disk full")
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	_, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, nil)
	expectKind(t, err, ErrKindPersistence)

	if stores.apps[1].Status != models.StatusSubmitted {
		t.Error("status write must roll back when history append fails")
	}
	if len(stores.history) != 0 {
		t.Error("no partial history expected")
	}
	if len(sink.sent) != 0 {
		t.Error("no notification expected after rollback")
	}
}

func TestApplyStatusChangeNotificationFailureIsSwallowed(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	sink := &fakeSink{sendErr: errors.New("smtp down")}
	engine := NewWorkflowEngine(stores, sink)

	result, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, nil)
	if err != nil {
		t.Fatalf("notification failure must not fail the operation: %v", err)
	}
	if !result.Success {
		t.Error("expected success despite notification failure")
	}
	if stores.apps[1].Status != models.StatusUnderReview {
		t.Error("status change must be committed")
	}
	if len(stores.history) != 1 {
		t.Error("history entry must be committed")
	}
}

func TestApplyStatusChangeRecordsDecisionNotes(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	notes := "Strong academic record, fast-tracked"
	if _, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, &notes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stores.apps[1].Notes == nil || *stores.apps[1].Notes != notes {
		t.Errorf("application notes = %v, want %q", stores.apps[1].Notes, notes)
	}
	if len(stores.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(stores.history))
	}
	if stores.history[0].Reason == nil || *stores.history[0].Reason != notes {
		t.Errorf("history reason = %v, want %q", stores.history[0].Reason, notes)
	}
}

func TestStudentEditForbiddenWhenApproved(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusApproved))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	program := "Mathematics"
	_, err := engine.StudentEdit(1, 10, ApplicationEdit{Program: &program})
	we := expectKind(t, err, ErrKindForbidden)

	if we.CurrentStatus != models.StatusApproved {
		t.Errorf("error current status = %s, want approved", we.CurrentStatus)
	}
	if stores.apps[1].Program != "Computer Science" {
		t.Error("application must be unchanged")
	}
}

func TestStudentEditUnderReviewAppendsSelfLoop(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusUnderReview))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	program := "Mathematics"
	result, err := engine.StudentEdit(1, 10, ApplicationEdit{Program: &program})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected success result")
	}

	if stores.apps[1].Program != "Mathematics" {
		t.Errorf("program = %s, want Mathematics", stores.apps[1].Program)
	}
	if stores.apps[1].Status != models.StatusUnderReview {
		t.Error("student edit must not change the status")
	}

	if len(stores.history) != 1 {
		t.Fatalf("expected self-loop history entry, got %d entries", len(stores.history))
	}
	entry := stores.history[0]
	if entry.OldStatus == nil || *entry.OldStatus != models.StatusUnderReview || entry.NewStatus != models.StatusUnderReview {
		t.Errorf("expected under-review -> under-review entry, got %v -> %s", entry.OldStatus, entry.NewStatus)
	}
	if entry.Reason == nil || *entry.Reason != "Application updated by student" {
		t.Errorf("unexpected reason %v", entry.Reason)
	}
	if entry.ChangedBy != 10 {
		t.Errorf("entry actor = %d, want the student", entry.ChangedBy)
	}
}

func TestStudentEditSubmittedSkipsHistory(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	term := "Spring 2027"
	if _, err := engine.StudentEdit(1, 10, ApplicationEdit{IntakeTerm: &term}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stores.apps[1].IntakeTerm != "Spring 2027" {
		t.Error("intake term not updated")
	}
	if len(stores.history) != 0 {
		t.Error("no history entry expected for edits while submitted")
	}
}

func TestStudentEditOtherStudentsApplication(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	program := "Physics"
	_, err := engine.StudentEdit(1, 11, ApplicationEdit{Program: &program})
	expectKind(t, err, ErrKindNotFound)
}

func TestStudentEditConflictOnConcurrentTransition(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusUnderReview))
	// An admin rejects the application between the ownership check and the
	// edit transaction.
	stores.afterLoad = func(f *fakeStores) {
		f.apps[1].Status = models.StatusRejected
	}
	engine := NewWorkflowEngine(stores, &fakeSink{})

	program := "Mathematics"
	_, err := engine.StudentEdit(1, 10, ApplicationEdit{Program: &program})
	we := expectKind(t, err, ErrKindConflict)

	if we.CurrentStatus != models.StatusRejected {
		t.Errorf("error current status = %s, want rejected", we.CurrentStatus)
	}
	if stores.apps[1].Program != "Computer Science" {
		t.Error("stale edit must not land after a concurrent transition")
	}
	if len(stores.history) != 0 {
		t.Errorf("expected no history entries, got %d", len(stores.history))
	}
}

func TestStudentDeleteForbiddenWhenUnderReview(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusUnderReview))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	_, err := engine.StudentDelete(1, 10)
	we := expectKind(t, err, ErrKindForbidden)
	if we.CurrentStatus != models.StatusUnderReview {
		t.Errorf("error current status = %s, want under-review", we.CurrentStatus)
	}
	if stores.apps[1].Status != models.StatusUnderReview {
		t.Error("status must be unchanged")
	}
}

func TestStudentDeleteSubmitted(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	result, err := engine.StudentDelete(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected success result")
	}

	if stores.apps[1].Status != models.StatusDeleted {
		t.Errorf("status = %s, want deleted", stores.apps[1].Status)
	}

	if len(stores.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(stores.history))
	}
	entry := stores.history[0]
	if entry.OldStatus == nil || *entry.OldStatus != models.StatusSubmitted || entry.NewStatus != models.StatusDeleted {
		t.Errorf("expected submitted -> deleted entry, got %v -> %s", entry.OldStatus, entry.NewStatus)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Severity != "warning" {
		t.Errorf("delete notification severity = %q, want warning", sink.sent[0].Severity)
	}
}

func TestCreateApplicationWritesInitialHistory(t *testing.T) {
	stores := newFakeStores()
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	app := testApp(0, 10, models.StatusSubmitted)
	if err := engine.CreateApplication(app, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ApplicationID == 0 {
		t.Fatal("expected application id to be assigned")
	}
	if _, ok := stores.apps[app.ApplicationID]; !ok {
		t.Fatal("application row not inserted")
	}

	if len(stores.history) != 1 {
		t.Fatalf("expected initial history entry, got %d", len(stores.history))
	}
	entry := stores.history[0]
	if entry.ApplicationID != app.ApplicationID {
		t.Errorf("initial entry application id = %d, want %d", entry.ApplicationID, app.ApplicationID)
	}
	if entry.OldStatus != nil {
		t.Errorf("initial entry old status = %v, want nil", entry.OldStatus)
	}
	if entry.NewStatus != models.StatusSubmitted {
		t.Errorf("initial entry new status = %s, want submitted", entry.NewStatus)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Title != "Application Received" {
		t.Errorf("creation notification title = %q", sink.sent[0].Title)
	}
}

func TestCreateApplicationHistoryFailureRollsBackInsert(t *testing.T) {
	stores := newFakeStores()
	stores.appendErr = errors.New("history insert failed")
	sink := &fakeSink{}
	engine := NewWorkflowEngine(stores, sink)

	app := testApp(0, 10, models.StatusSubmitted)
	err := engine.CreateApplication(app, 10)
	expectKind(t, err, ErrKindPersistence)

	if len(stores.apps) != 0 {
		t.Errorf("expected application insert to roll back, %d rows remain", len(stores.apps))
	}
	if len(stores.history) != 0 {
		t.Errorf("expected no history entries, got %d", len(stores.history))
	}
	if len(sink.sent) != 0 {
		t.Errorf("expected no notification after rollback, got %d", len(sink.sent))
	}
}

func TestBulkApplyStatusChangePartialFailure(t *testing.T) {
	stores := newFakeStores(
		testApp(1, 10, models.StatusSubmitted),
		testApp(2, 11, models.StatusSubmitted),
		testApp(3, 12, models.StatusRejected),
	)
	stores.apps[2].ApplicationNumber = "ADM-2026-0002"
	stores.apps[3].ApplicationNumber = "ADM-2026-0003"

	engine := NewWorkflowEngine(stores, &fakeSink{})

	result := engine.BulkApplyStatusChange([]int{1, 2, 3}, models.StatusUnderReview, 99, nil)

	if result.Successful != 2 || result.Failed != 1 {
		t.Fatalf("successful/failed = %d/%d, want 2/1", result.Successful, result.Failed)
	}

	if !result.Results[1].Success || !result.Results[2].Success {
		t.Error("ids 1 and 2 should succeed")
	}
	if result.Results[3].Success {
		t.Error("id 3 should fail")
	}

	if stores.apps[1].Status != models.StatusUnderReview || stores.apps[2].Status != models.StatusUnderReview {
		t.Error("successful ids must be transitioned")
	}
	if stores.apps[3].Status != models.StatusRejected {
		t.Error("failed id must be untouched")
	}
	if len(stores.history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(stores.history))
	}
}

func TestStatusHistoryOrdering(t *testing.T) {
	stores := newFakeStores(testApp(1, 10, models.StatusSubmitted))
	engine := NewWorkflowEngine(stores, &fakeSink{})

	if _, err := engine.ApplyStatusChange(1, models.StatusUnderReview, 99, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.ApplyStatusChange(1, models.StatusInterviewScheduled, 99, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := engine.StatusHistory(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].NewStatus != models.StatusUnderReview || history[1].NewStatus != models.StatusInterviewScheduled {
		t.Errorf("history out of order: %s then %s", history[0].NewStatus, history[1].NewStatus)
	}
}
