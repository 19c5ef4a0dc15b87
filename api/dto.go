/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employees:
    EmployeeDTO, CreateEmployeeRequest

  Generation:
    GenerateScheduleRequest, GenerationResultDTO, ShortageDTO

  Periods:
    PeriodDTO, PeriodSummaryDTO, ShiftDTO, EmployeeStatsDTO, ConflictDTO

  Templates:
    SaveTemplateRequest, CopyTemplateRequest, TemplateResultDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/settings.go: SettingsPatch, embedded in GenerateScheduleRequest
*/
package api

import (
	"time"

	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Active          bool     `json:"active"`
	MaxHoursPerWeek float64  `json:"max_hours_per_week"`
	MinHoursPerWeek float64  `json:"min_hours_per_week"`
	EmploymentType  string   `json:"employment_type"`
	HourlyRate      string   `json:"hourly_rate"`
	Positions       []string `json:"positions"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID              string   `json:"id"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	MaxHoursPerWeek float64  `json:"max_hours_per_week"`
	MinHoursPerWeek float64  `json:"min_hours_per_week"`
	EmploymentType  string   `json:"employment_type"`
	HourlyRate      string   `json:"hourly_rate"`
	Positions       []string `json:"positions"`
}

// GenerateScheduleRequest is the request to generate a week's schedule.
// Settings overrides the generation defaults field by field.
type GenerateScheduleRequest struct {
	WeekStart string                  `json:"week_start"`
	CreatedBy string                  `json:"created_by,omitempty"`
	Settings  *schedule.SettingsPatch `json:"settings,omitempty"`
}

// ShortageDTO reports one understaffed requirement block.
type ShortageDTO struct {
	Date       string `json:"date"`
	BlockStart string `json:"block_start"`
	BlockEnd   string `json:"block_end"`
	Assigned   int    `json:"assigned"`
	Required   int    `json:"required"`
}

// GenerationResultDTO is the response after a successful generation run.
type GenerationResultDTO struct {
	PeriodID        string        `json:"period_id"`
	TotalHours      float64       `json:"total_hours"`
	EstimatedCost   string        `json:"estimated_cost"`
	ShiftsGenerated int           `json:"shifts_generated"`
	Shortages       []ShortageDTO `json:"shortages"`
}

// PeriodDTO represents a schedule period in API responses.
type PeriodDTO struct {
	ID                 string            `json:"id"`
	WeekStart          string            `json:"week_start"`
	WeekEnd            string            `json:"week_end"`
	Status             string            `json:"status"`
	GenerationMethod   string            `json:"generation_method"`
	Settings           schedule.Settings `json:"settings"`
	TotalLaborHours    float64           `json:"total_labor_hours"`
	EstimatedLaborCost string            `json:"estimated_labor_cost"`
	TemplateID         string            `json:"template_id,omitempty"`
	CreatedBy          string            `json:"created_by,omitempty"`
	PublishedBy        string            `json:"published_by,omitempty"`
	PublishedAt        string            `json:"published_at,omitempty"`
	CreatedAt          string            `json:"created_at,omitempty"`
}

// ShiftDTO represents one scheduled shift.
type ShiftDTO struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
	Position     string  `json:"position"`
	WorkingHours float64 `json:"working_hours"`
	IsDraft      bool    `json:"is_draft"`
}

// EmployeeStatsDTO aggregates one employee's share of a period.
type EmployeeStatsDTO struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	ShiftCount int     `json:"shift_count"`
	TotalHours float64 `json:"total_hours"`
}

// ConflictDTO represents a detected scheduling conflict.
type ConflictDTO struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Employee string `json:"employee"`
	Date     string `json:"date,omitempty"`
	Message  string `json:"message"`
}

// PeriodSummaryDTO is the full review view of a period.
type PeriodSummaryDTO struct {
	Period        PeriodDTO          `json:"period"`
	Shifts        []ShiftDTO         `json:"shifts"`
	EmployeeStats []EmployeeStatsDTO `json:"employee_stats"`
	Conflicts     []ConflictDTO      `json:"conflicts"`
}

// PublishRequest identifies who published a period.
type PublishRequest struct {
	PublishedBy string `json:"published_by,omitempty"`
}

// ArchiveRequest identifies who archived a period.
type ArchiveRequest struct {
	ArchivedBy string `json:"archived_by,omitempty"`
}

// SaveTemplateRequest captures a period as a reusable template.
type SaveTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// CopyTemplateRequest replays a template into a new week.
type CopyTemplateRequest struct {
	WeekStart string `json:"week_start"`
	CreatedBy string `json:"created_by,omitempty"`
}

// TemplateResultDTO is the response after template operations.
type TemplateResultDTO struct {
	TemplateID string `json:"template_id,omitempty"`
	PeriodID   string `json:"period_id,omitempty"`
}

// NotificationDTO represents a publish notification.
type NotificationDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	SentVia    string `json:"sent_via"`
	CreatedAt  string `json:"created_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPeriodDTO(p schedule.SchedulePeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:                 p.ID,
		WeekStart:          p.WeekStart.String(),
		WeekEnd:            p.WeekEnd.String(),
		Status:             string(p.Status),
		GenerationMethod:   string(p.Method),
		Settings:           p.Settings,
		TotalLaborHours:    p.TotalLaborHours,
		EstimatedLaborCost: p.EstimatedLaborCost.StringFixed(2),
		TemplateID:         p.TemplateID,
		CreatedBy:          p.CreatedBy,
		PublishedBy:        p.PublishedBy,
	}
	if p.PublishedAt != nil {
		dto.PublishedAt = p.PublishedAt.Format(time.RFC3339)
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toShiftDTO(d schedule.ShiftDetail) ShiftDTO {
	return ShiftDTO{
		ID:           d.ID,
		EmployeeID:   string(d.EmployeeID),
		EmployeeName: d.EmployeeName,
		Date:         d.Date.String(),
		StartTime:    d.Start.String(),
		EndTime:      d.End.String(),
		BreakMinutes: d.BreakMinutes,
		Position:     d.Position,
		WorkingHours: d.WorkingHours(),
		IsDraft:      d.IsDraft,
	}
}

func toShortageDTOs(shortages []schedule.Shortage) []ShortageDTO {
	dtos := make([]ShortageDTO, len(shortages))
	for i, s := range shortages {
		dtos[i] = ShortageDTO{
			Date:       s.Date.String(),
			BlockStart: s.BlockStart.String(),
			BlockEnd:   s.BlockEnd.String(),
			Assigned:   s.Assigned,
			Required:   s.Required,
		}
	}
	return dtos
}

func toConflictDTOs(conflicts []schedule.Conflict) []ConflictDTO {
	dtos := make([]ConflictDTO, len(conflicts))
	for i, c := range conflicts {
		dto := ConflictDTO{
			Type:     string(c.Type),
			Severity: string(c.Severity),
			Employee: c.Employee,
			Message:  c.Message,
		}
		if !c.Date.IsZero() {
			dto.Date = c.Date.String()
		}
		dtos[i] = dto
	}
	return dtos
}
