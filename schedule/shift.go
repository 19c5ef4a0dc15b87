package schedule

// =============================================================================
// BREAK POLICY - Pure function of shift length
// =============================================================================

// BreakMinutes returns the mandated break for a shift of the given
// start/end times:
//
//	>= 8h -> 60 min
//	>= 6h -> 30 min
//	>= 4h -> 15 min
//	else  ->  0 min
func BreakMinutes(start, end ClockTime) int {
	hours := float64(spanMinutes(start, end)) / 60
	switch {
	case hours >= 8:
		return 60
	case hours >= 6:
		return 30
	case hours >= 4:
		return 15
	default:
		return 0
	}
}

// WorkingHours is the payable time of a span after subtracting the break.
func WorkingHours(start, end ClockTime, breakMinutes int) float64 {
	return float64(spanMinutes(start, end)-breakMinutes) / 60
}

// blockWorkingHours applies the break policy to a requirement block.
func blockWorkingHours(start, end ClockTime) float64 {
	return WorkingHours(start, end, BreakMinutes(start, end))
}
