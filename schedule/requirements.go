package schedule

import (
	"sort"
	"time"
)

// =============================================================================
// REQUIREMENT COMPILER - Active requirements to per-day ordered time blocks
// =============================================================================

// CompileRequirements turns active staffing requirements into per-day time
// blocks ordered by start time. Days with no requirements simply have no
// entry; the day scheduler falls back to availability-driven shifts there.
func CompileRequirements(requirements []Requirement) map[time.Weekday][]TimeBlock {
	blocks := make(map[time.Weekday][]TimeBlock)
	for _, req := range requirements {
		if !req.Active {
			continue
		}
		priority := req.Priority
		if priority == "" {
			priority = "medium"
		}
		blocks[req.Day] = append(blocks[req.Day], TimeBlock{
			Start:              req.BlockStart,
			End:                req.BlockEnd,
			MinEmployees:       req.MinEmployees,
			MaxEmployees:       req.MaxEmployees,
			PreferredPositions: req.PreferredPositions,
			Priority:           priority,
		})
	}

	for day := range blocks {
		dayBlocks := blocks[day]
		sort.SliceStable(dayBlocks, func(i, j int) bool {
			return dayBlocks[i].Start < dayBlocks[j].Start
		})
	}
	return blocks
}
