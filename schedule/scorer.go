/*
scorer.go - Candidate Scorer

Scores an employee's fitness for a time block. The score is a simple sum:

  gate: no covering availability window  -> excluded entirely
  +10   covering window type is "preferred"
  +(1 - hours/max) * 20  when distribute_hours_evenly (skipped if max <= 0)
  +15   employee position intersects the block's preferred positions
  +5    shift count in the trailing 1-day window below max_consecutive_days
  +5    full-time employment

Candidates are sorted by score descending with a STABLE sort: ties keep the
original enumeration order, which keeps generation deterministic.
*/
package schedule

import "sort"

type scoredCandidate struct {
	candidate *dayCandidate
	score     float64
}

// scoreCandidates ranks the day's eligible employees for one block.
// Employees with no window covering the block are excluded outright.
func scoreCandidates(eligible []dayCandidate, block TimeBlock, date Date, state *runState, settings Settings) []scoredCandidate {
	var scored []scoredCandidate

	for i := range eligible {
		cand := &eligible[i]
		emp := cand.Employee

		covered := false
		score := 0.0
		for _, w := range cand.Windows {
			if w.Covers(block.Start, block.End) {
				covered = true
				if w.Type == AvailabilityPreferred {
					score += 10
				}
				break
			}
		}
		if !covered {
			continue
		}

		if settings.DistributeHoursEvenly {
			maxHours := emp.MaxHours()
			if maxHours > 0 {
				ratio := state.hours[emp.ID] / maxHours
				score += (1 - ratio) * 20
			}
		}

		if intersects(emp.Positions, block.PreferredPositions) {
			score += 15
		}

		recent := 0
		for _, rec := range state.history[emp.ID] {
			if DaysBetween(rec.date, date) <= 1 {
				recent++
			}
		}
		if recent < settings.MaxConsecutiveDays {
			score += 5
		}

		if emp.EmploymentType == EmploymentFullTime {
			score += 5
		}

		scored = append(scored, scoredCandidate{candidate: cand, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

func intersects(a, b []string) bool {
	for _, x := range b {
		for _, y := range a {
			if x == y {
				return true
			}
		}
	}
	return false
}

// selectPosition picks the first preferred position the employee can fill,
// else their first registered position, else the generic default.
func selectPosition(emp *Employee, preferred []string) string {
	for _, pos := range preferred {
		for _, own := range emp.Positions {
			if pos == own {
				return pos
			}
		}
	}
	if len(emp.Positions) > 0 {
		return emp.Positions[0]
	}
	return DefaultPosition
}
