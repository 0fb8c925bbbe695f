package scoring

import (
	"fmt"
	"time"
)

// WalkTransitions folds one item's ordered transition history into an
// Accounting. It is a single left-to-right pass: O(len(transitions)) with two
// scalar accumulators plus per-state dwell totals for bottleneck ranking.
//
// Productive intervals are counted through the business clock; Paused
// intervals are raw wall-clock unless pausedBusinessHours is set. Assigned,
// Completed and Ignored intervals accumulate no bucketed time but still
// contribute to the raw dwell map.
//
// The input order is never changed. Non-monotonic timestamps between
// consecutive transitions are reported as diagnostics and the offending
// interval contributes zero.
func WalkTransitions(item WorkItem, transitions []StateTransition, cats *CategoryMap, clock BusinessClock, pausedBusinessHours bool) (Accounting, []Diagnostic) {
	acc := Accounting{
		Dwell:       make(map[string]StateDwell),
		Transitions: len(transitions),
	}
	var diags []Diagnostic

	if len(transitions) == 0 {
		return acc, diags
	}

	unknownSeen := make(map[string]bool)
	resolve := func(state string) Category {
		cat, mapped := cats.CategoryOf(state)
		if !mapped && !unknownSeen[state] {
			unknownSeen[state] = true
			diags = append(diags, Diagnostic{
				Kind:    DiagData,
				ItemID:  item.ID,
				Message: fmt.Sprintf("state %q not in category map, defaulting to %q", state, cat),
			})
		}
		return cat
	}

	first := transitions[0]
	currentState := first.State
	currentCategory := resolve(first.State)
	since := first.Timestamp
	// Item creation anchors the first interval when it predates the first
	// recorded transition.
	if item.CreatedDate != nil && item.CreatedDate.Before(since) {
		since = *item.CreatedDate
	}
	anchor := since

	if currentCategory == CategoryIgnored {
		acc.ShouldIgnore = true
	}
	if currentCategory == CategoryProductive {
		ts := first.Timestamp
		acc.FirstProductive = &ts
	}

	for i := 1; i < len(transitions); i++ {
		tr := transitions[i]

		if tr.Timestamp.Before(since) {
			diags = append(diags, Diagnostic{
				Kind:   DiagData,
				ItemID: item.ID,
				Message: fmt.Sprintf("non-monotonic timestamps: revision %d at %s precedes previous anchor %s",
					tr.Revision, tr.Timestamp.Format(time.RFC3339), since.Format(time.RFC3339)),
			})
		}

		elapsed := tr.Timestamp.Sub(since)
		if elapsed < 0 {
			elapsed = 0
		}
		hours := elapsed.Hours()

		switch currentCategory {
		case CategoryProductive:
			counted := clock.CountedHours(since, tr.Timestamp)
			acc.ProductiveHours += counted
			if acc.ReopenCount > 0 {
				acc.ActiveAfterReopenHours += counted
			}
		case CategoryPaused:
			paused := hours
			if pausedBusinessHours {
				paused = clock.CountedHours(since, tr.Timestamp)
			}
			acc.PausedHours += paused
		}

		d := acc.Dwell[currentState]
		d.Hours += hours
		d.Entries++
		acc.Dwell[currentState] = d

		newCategory := resolve(tr.State)
		if currentCategory == CategoryCompleted &&
			(newCategory == CategoryAssigned || newCategory == CategoryProductive) {
			acc.ReopenCount++
		}
		if newCategory == CategoryIgnored {
			acc.ShouldIgnore = true
		}
		if newCategory == CategoryProductive && acc.FirstProductive == nil {
			ts := tr.Timestamp
			acc.FirstProductive = &ts
		}

		currentState = tr.State
		currentCategory = newCategory
		since = tr.Timestamp
	}

	last := transitions[len(transitions)-1]
	if currentCategory == CategoryCompleted {
		ts := last.Timestamp
		acc.CompletedAt = &ts
	}
	if elapsed := last.Timestamp.Sub(anchor); elapsed > 0 {
		acc.ElapsedHours = elapsed.Hours()
	}

	return acc, diags
}
