package schedule

// =============================================================================
// GENERATION SETTINGS - Typed configuration, no hidden keys
// =============================================================================

// Settings controls one generation run. A JSON snapshot is stored on the
// period so a published schedule records exactly how it was produced.
type Settings struct {
	// Algorithm is recorded for auditing; all current algorithms share the
	// same greedy scoring path.
	Algorithm string `json:"algorithm"`

	MaxConsecutiveDays   int     `json:"max_consecutive_days"`
	MinTimeBetweenShifts float64 `json:"min_time_between_shifts"` // hours

	DistributeHoursEvenly bool `json:"distribute_hours_evenly"`

	// PrioritizeSeniority is accepted but has no effect on scoring.
	// Kept pending product clarification.
	PrioritizeSeniority bool `json:"prioritize_seniority"`

	AvoidClopening bool `json:"avoid_clopening"`

	// WeekEnd overrides the default 7-day range (week_start + 6).
	WeekEnd *Date `json:"week_end_date,omitempty"`

	// SelectedEmployees restricts generation to these employees;
	// ExcludedEmployees removes employees from consideration.
	SelectedEmployees []EmployeeID `json:"selected_employees,omitempty"`
	ExcludedEmployees []EmployeeID `json:"excluded_employees,omitempty"`

	// Bounds for the no-requirement fallback shifts.
	MinEmployeesPerShift int `json:"min_employees_per_shift"`
	MaxEmployeesPerShift int `json:"max_employees_per_shift"` // 0 = everyone available

	// DefaultShiftLength (hours) closes open-ended availability windows.
	DefaultShiftLength int `json:"default_shift_length"`
}

// DefaultSettings are the documented generation defaults.
func DefaultSettings() Settings {
	return Settings{
		Algorithm:             "balanced",
		MaxConsecutiveDays:    6,
		MinTimeBetweenShifts:  10,
		DistributeHoursEvenly: true,
		PrioritizeSeniority:   false,
		AvoidClopening:        true,
		MinEmployeesPerShift:  1,
		MaxEmployeesPerShift:  0,
		DefaultShiftLength:    8,
	}
}

// SettingsPatch merges caller overrides over the defaults. Nil fields keep
// the default value.
type SettingsPatch struct {
	Algorithm             *string      `json:"algorithm,omitempty"`
	MaxConsecutiveDays    *int         `json:"max_consecutive_days,omitempty"`
	MinTimeBetweenShifts  *float64     `json:"min_time_between_shifts,omitempty"`
	DistributeHoursEvenly *bool        `json:"distribute_hours_evenly,omitempty"`
	PrioritizeSeniority   *bool        `json:"prioritize_seniority,omitempty"`
	AvoidClopening        *bool        `json:"avoid_clopening,omitempty"`
	WeekEnd               *Date        `json:"week_end_date,omitempty"`
	SelectedEmployees     []EmployeeID `json:"selected_employees,omitempty"`
	ExcludedEmployees     []EmployeeID `json:"excluded_employees,omitempty"`
	MinEmployeesPerShift  *int         `json:"min_employees_per_shift,omitempty"`
	MaxEmployeesPerShift  *int         `json:"max_employees_per_shift,omitempty"`
	DefaultShiftLength    *int         `json:"default_shift_length,omitempty"`
}

// Apply returns base with every non-nil patch field overridden.
func (p SettingsPatch) Apply(base Settings) Settings {
	if p.Algorithm != nil {
		base.Algorithm = *p.Algorithm
	}
	if p.MaxConsecutiveDays != nil {
		base.MaxConsecutiveDays = *p.MaxConsecutiveDays
	}
	if p.MinTimeBetweenShifts != nil {
		base.MinTimeBetweenShifts = *p.MinTimeBetweenShifts
	}
	if p.DistributeHoursEvenly != nil {
		base.DistributeHoursEvenly = *p.DistributeHoursEvenly
	}
	if p.PrioritizeSeniority != nil {
		base.PrioritizeSeniority = *p.PrioritizeSeniority
	}
	if p.AvoidClopening != nil {
		base.AvoidClopening = *p.AvoidClopening
	}
	if p.WeekEnd != nil {
		base.WeekEnd = p.WeekEnd
	}
	if p.SelectedEmployees != nil {
		base.SelectedEmployees = p.SelectedEmployees
	}
	if p.ExcludedEmployees != nil {
		base.ExcludedEmployees = p.ExcludedEmployees
	}
	if p.MinEmployeesPerShift != nil {
		base.MinEmployeesPerShift = *p.MinEmployeesPerShift
	}
	if p.MaxEmployeesPerShift != nil {
		base.MaxEmployeesPerShift = *p.MaxEmployeesPerShift
	}
	if p.DefaultShiftLength != nil {
		base.DefaultShiftLength = *p.DefaultShiftLength
	}
	return base
}
