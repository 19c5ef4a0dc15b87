/*
handlers.go - HTTP API handlers for the shift scheduling engine

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees              List active employees
    POST   /api/employees              Create employee
    GET    /api/employees/{id}         Get employee details

  Schedules:
    POST   /api/schedules/generate          Generate a draft week
    GET    /api/schedules/{id}              Get period metadata
    GET    /api/schedules/{id}/summary      Full review view
    GET    /api/schedules/{id}/notifications Publish fan-out records
    POST   /api/schedules/{id}/publish      Draft -> published
    POST   /api/schedules/{id}/archive      Any -> archived
    POST   /api/schedules/{id}/template     Save period as template
    DELETE /api/schedules/{id}              Delete a draft

  Templates:
    POST   /api/templates/{id}/copy    Replay template into a new week

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (roster seeding and period reads)
  - Manager: Schedule lifecycle (generate, publish, archive, templates)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (manager, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Period or template not found
  - 409: Conflict (published period exists, wrong status)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - schedule/manager.go: Lifecycle operations
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Manager *schedule.Manager
}

// NewHandler creates a handler backed by the given store. The store serves
// as every one of the manager's data sources.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Manager: schedule.NewManager(store, store, store, store),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all active employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, err := h.Store.ListActive(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		positions, err := h.Store.Positions(ctx, e.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load positions", err)
			return
		}
		dtos[i] = toEmployeeDTO(e, positions)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := schedule.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.Get(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	positions, err := h.Store.Positions(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load positions", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp, positions))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.FirstName == "" {
		writeError(w, http.StatusBadRequest, "id and first_name are required", nil)
		return
	}

	rate := schedule.DefaultHourlyRate
	if req.HourlyRate != "" {
		parsed, err := decimal.NewFromString(req.HourlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
			return
		}
		rate = parsed
	}

	emp := schedule.Employee{
		ID:              schedule.EmployeeID(req.ID),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Active:          true,
		MaxHoursPerWeek: req.MaxHoursPerWeek,
		MinHoursPerWeek: req.MinHoursPerWeek,
		EmploymentType:  schedule.EmploymentType(req.EmploymentType),
		HourlyRate:      rate,
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = schedule.EmploymentFullTime
	}

	if err := h.Store.SaveEmployee(r.Context(), emp, req.Positions...); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp, req.Positions))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule generates a draft schedule for one week.
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req GenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekStart, err := schedule.ParseDate(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start format (use YYYY-MM-DD)", err)
		return
	}

	var patch schedule.SettingsPatch
	if req.Settings != nil {
		patch = *req.Settings
	}

	result, err := h.Manager.Generate(r.Context(), weekStart, patch, req.CreatedBy)
	if err != nil {
		writeDomainError(w, "Failed to generate schedule", err)
		return
	}

	writeJSON(w, http.StatusCreated, GenerationResultDTO{
		PeriodID:        result.PeriodID,
		TotalHours:      result.TotalHours,
		EstimatedCost:   result.EstimatedCost.StringFixed(2),
		ShiftsGenerated: result.ShiftsGenerated,
		Shortages:       toShortageDTOs(result.Shortages),
	})
}

// GetSchedule returns period metadata.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	period, err := h.Store.GetPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if period == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(*period))
}

// GetScheduleSummary returns the full review view of a period.
func (h *Handler) GetScheduleSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.Manager.Summary(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to build summary", err)
		return
	}

	shifts := make([]ShiftDTO, len(summary.Shifts))
	for i, s := range summary.Shifts {
		shifts[i] = toShiftDTO(s)
	}
	stats := make([]EmployeeStatsDTO, len(summary.EmployeeStats))
	for i, s := range summary.EmployeeStats {
		stats[i] = EmployeeStatsDTO{
			EmployeeID: string(s.EmployeeID),
			Name:       s.Name,
			ShiftCount: s.ShiftCount,
			TotalHours: s.TotalHours,
		}
	}

	writeJSON(w, http.StatusOK, PeriodSummaryDTO{
		Period:        toPeriodDTO(summary.Period),
		Shifts:        shifts,
		EmployeeStats: stats,
		Conflicts:     toConflictDTOs(summary.Conflicts),
	})
}

// PublishSchedule transitions a draft period to published.
func (h *Handler) PublishSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PublishRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if err := h.Manager.Publish(r.Context(), id, req.PublishedBy); err != nil {
		writeDomainError(w, "Failed to publish schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

// ArchiveSchedule transitions a period to archived.
func (h *Handler) ArchiveSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ArchiveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if err := h.Manager.Archive(r.Context(), id, req.ArchivedBy); err != nil {
		writeDomainError(w, "Failed to archive schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// DeleteSchedule removes a draft period and its shifts.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	period, err := h.Store.GetPeriod(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if period == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}
	if period.Status != schedule.StatusDraft {
		writeError(w, http.StatusConflict, "Only draft schedules can be deleted", nil)
		return
	}

	if err := h.Store.DeletePeriod(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetScheduleNotifications returns the publish fan-out for a period.
func (h *Handler) GetScheduleNotifications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	notifications, err := h.Store.NotificationsByPeriod(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}

	dtos := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		dtos[i] = NotificationDTO{
			ID:         n.ID,
			EmployeeID: string(n.EmployeeID),
			Type:       n.Type,
			SentVia:    n.SentVia,
			CreatedAt:  n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// SaveTemplate captures a period as a reusable template.
func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	templateID, err := h.Manager.SaveAsTemplate(r.Context(), id, req.Name, req.Description, req.CreatedBy)
	if err != nil {
		writeDomainError(w, "Failed to save template", err)
		return
	}

	writeJSON(w, http.StatusCreated, TemplateResultDTO{TemplateID: templateID})
}

// CopyTemplate replays a template into a new week as a fresh draft.
func (h *Handler) CopyTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CopyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekStart, err := schedule.ParseDate(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start format (use YYYY-MM-DD)", err)
		return
	}

	periodID, err := h.Manager.CopyFromTemplate(r.Context(), id, weekStart, req.CreatedBy)
	if err != nil {
		writeDomainError(w, "Failed to copy template", err)
		return
	}

	writeJSON(w, http.StatusCreated, TemplateResultDTO{TemplateID: id, PeriodID: periodID})
}

// =============================================================================
// HELPERS
// =============================================================================

func toEmployeeDTO(e schedule.Employee, positions []string) EmployeeDTO {
	return EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name(),
		Active:          e.Active,
		MaxHoursPerWeek: e.MaxHoursPerWeek,
		MinHoursPerWeek: e.MinHoursPerWeek,
		EmploymentType:  string(e.EmploymentType),
		HourlyRate:      e.Rate().StringFixed(2),
		Positions:       positions,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case schedule.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case schedule.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
