package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/api"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return api.NewRouter(api.NewHandler(store)), store
}

func seedRoster(t *testing.T, store *sqlite.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := store.SaveEmployee(context.Background(), schedule.Employee{
			ID:              schedule.EmployeeID(id),
			FirstName:       id,
			Active:          true,
			MaxHoursPerWeek: 40,
			EmploymentType:  schedule.EmploymentFullTime,
			HourlyRate:      decimal.NewFromInt(20),
		})
		require.NoError(t, err)
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func generateWeek(t *testing.T, router http.Handler, weekStart string) api.GenerationResultDTO {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/schedules/generate",
		api.GenerateScheduleRequest{WeekStart: weekStart, CreatedBy: "manager"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[api.GenerationResultDTO](t, rec)
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

func TestListEmployees(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice", "bob")

	rec := doRequest(t, router, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	employees := decodeBody[[]api.EmployeeDTO](t, rec)
	require.Len(t, employees, 2)
	assert.Equal(t, "alice", employees[0].ID)
	assert.Equal(t, "20.00", employees[0].HourlyRate)
}

func TestCreateEmployee(t *testing.T) {
	router, store := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID:        "carol",
		FirstName: "Carol",
		LastName:  "Jones",
		Positions: []string{"cook"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[api.EmployeeDTO](t, rec)
	assert.Equal(t, "Carol Jones", created.Name)
	assert.Equal(t, string(schedule.EmploymentFullTime), created.EmploymentType)
	assert.Equal(t, schedule.DefaultHourlyRate.StringFixed(2), created.HourlyRate)

	emp, err := store.Get(context.Background(), "carol")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.True(t, emp.Active)
}

func TestCreateEmployee_MissingFields(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{FirstName: "NoID"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEmployee_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SCHEDULE LIFECYCLE
// =============================================================================

func TestGenerateSchedule(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice", "bob", "carol")

	result := generateWeek(t, router, "2025-06-02")
	assert.NotEmpty(t, result.PeriodID)
	assert.Equal(t, 21, result.ShiftsGenerated, "3 employees x 7 days fallback")
	assert.Greater(t, result.TotalHours, 0.0)

	rec := doRequest(t, router, http.MethodGet, "/api/schedules/"+result.PeriodID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	period := decodeBody[api.PeriodDTO](t, rec)
	assert.Equal(t, "2025-06-02", period.WeekStart)
	assert.Equal(t, "2025-06-08", period.WeekEnd)
	assert.Equal(t, string(schedule.StatusDraft), period.Status)
}

func TestGenerateSchedule_BadWeekStart(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/schedules/generate",
		api.GenerateScheduleRequest{WeekStart: "June 2nd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSchedule_NoEligibleEmployees(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/schedules/generate",
		api.GenerateScheduleRequest{WeekStart: "2025-06-02"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSchedule_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/schedules/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleSummary(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice", "bob")

	result := generateWeek(t, router, "2025-06-02")

	rec := doRequest(t, router, http.MethodGet, "/api/schedules/"+result.PeriodID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeBody[api.PeriodSummaryDTO](t, rec)
	assert.Len(t, summary.Shifts, result.ShiftsGenerated)
	require.Len(t, summary.EmployeeStats, 2)
	assert.Equal(t, 7, summary.EmployeeStats[0].ShiftCount)
	// 7 working hours a day over 7 days exceeds the 40h cap for both.
	assert.Len(t, summary.Conflicts, 2)
}

func TestPublishThenRegenerateConflicts(t *testing.T) {
	// GIVEN: a published week
	// WHEN: generating the same week again
	// THEN: 409, the published period is untouched

	router, store := newTestServer(t)
	seedRoster(t, store, "alice")

	result := generateWeek(t, router, "2025-06-02")

	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/publish",
		api.PublishRequest{PublishedBy: "manager"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/api/schedules/generate",
		api.GenerateScheduleRequest{WeekStart: "2025-06-02"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/schedules/"+result.PeriodID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	period := decodeBody[api.PeriodDTO](t, rec)
	assert.Equal(t, string(schedule.StatusPublished), period.Status)
	assert.Equal(t, "manager", period.PublishedBy)
}

func TestPublishNotifications(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice", "bob")

	result := generateWeek(t, router, "2025-06-02")
	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/schedules/"+result.PeriodID+"/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	notifications := decodeBody[[]api.NotificationDTO](t, rec)
	require.Len(t, notifications, 2)
	assert.Equal(t, "new_schedule", notifications[0].Type)
}

func TestArchiveSchedule(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice")

	result := generateWeek(t, router, "2025-06-02")
	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/archive",
		api.ArchiveRequest{ArchivedBy: "manager"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The week is free again.
	again := generateWeek(t, router, "2025-06-02")
	assert.NotEqual(t, result.PeriodID, again.PeriodID)
}

func TestDeleteSchedule(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice")

	result := generateWeek(t, router, "2025-06-02")

	rec := doRequest(t, router, http.MethodDelete, "/api/schedules/"+result.PeriodID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/schedules/"+result.PeriodID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSchedule_PublishedRejected(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice")

	result := generateWeek(t, router, "2025-06-02")
	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/schedules/"+result.PeriodID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplateSaveAndCopy(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice", "bob")

	result := generateWeek(t, router, "2025-06-02")

	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/template",
		api.SaveTemplateRequest{Name: "Standard Week", CreatedBy: "manager"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decodeBody[api.TemplateResultDTO](t, rec)
	require.NotEmpty(t, saved.TemplateID)

	rec = doRequest(t, router, http.MethodPost, "/api/templates/"+saved.TemplateID+"/copy",
		api.CopyTemplateRequest{WeekStart: "2025-06-16", CreatedBy: "manager"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	copied := decodeBody[api.TemplateResultDTO](t, rec)
	require.NotEmpty(t, copied.PeriodID)

	rec = doRequest(t, router, http.MethodGet, "/api/schedules/"+copied.PeriodID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	period := decodeBody[api.PeriodDTO](t, rec)
	assert.Equal(t, "2025-06-16", period.WeekStart)
	assert.Equal(t, string(schedule.MethodTemplate), period.GenerationMethod)
	assert.Equal(t, saved.TemplateID, period.TemplateID)
}

func TestTemplateSave_MissingName(t *testing.T) {
	router, store := newTestServer(t)
	seedRoster(t, store, "alice")
	result := generateWeek(t, router, "2025-06-02")

	rec := doRequest(t, router, http.MethodPost, "/api/schedules/"+result.PeriodID+"/template",
		api.SaveTemplateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateCopy_UnknownTemplate(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/templates/ghost/copy",
		api.CopyTemplateRequest{WeekStart: "2025-06-16"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
