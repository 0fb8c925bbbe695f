package scoring

import (
	"math"
	"reflect"
	"testing"
	"time"
)

// Scenario transitions: New(day1 9:00) -> Active(day1 10:00) ->
// Blocked(day1 14:00) -> Active(day2 9:00) -> Closed(day2 16:00).
// Day 1 = Monday 2024-01-08, day 2 = Tuesday 2024-01-09.
func scenarioTransitions() []StateTransition {
	day1 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	return []StateTransition{
		{Revision: 1, State: "New", Timestamp: day1.Add(9 * time.Hour)},
		{Revision: 2, State: "Active", Timestamp: day1.Add(10 * time.Hour)},
		{Revision: 3, State: "Blocked", Timestamp: day1.Add(14 * time.Hour)},
		{Revision: 4, State: "Active", Timestamp: day2.Add(9 * time.Hour)},
		{Revision: 5, State: "Closed", Timestamp: day2.Add(16 * time.Hour)},
	}
}

func TestWalkTransitionsScenario(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	acc, diags := WalkTransitions(WorkItem{ID: 1}, scenarioTransitions(), cats, clock, false)

	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diags)
	}

	// Productive: 10:00-14:00 day 1 (4h) + 9:00-16:00 day 2 (7h).
	if math.Abs(acc.ProductiveHours-11.0) > 1e-9 {
		t.Errorf("Expected 11.0 productive hours, got %f", acc.ProductiveHours)
	}

	// Paused: raw wall-clock 14:00 day 1 to 9:00 day 2 = 19h.
	if math.Abs(acc.PausedHours-19.0) > 1e-9 {
		t.Errorf("Expected 19.0 paused hours, got %f", acc.PausedHours)
	}

	if acc.CompletedAt == nil {
		t.Fatal("Expected a terminal completion timestamp")
	}
	expectedClosed := time.Date(2024, 1, 9, 16, 0, 0, 0, time.UTC)
	if !acc.CompletedAt.Equal(expectedClosed) {
		t.Errorf("Expected completion at %v, got %v", expectedClosed, acc.CompletedAt)
	}

	if acc.FirstProductive == nil || !acc.FirstProductive.Equal(time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected first productive entry at day1 10:00, got %v", acc.FirstProductive)
	}

	if acc.WasReopened() {
		t.Error("Item was never reopened")
	}

	// Elapsed: day1 9:00 to day2 16:00 = 31h.
	if math.Abs(acc.ElapsedHours-31.0) > 1e-9 {
		t.Errorf("Expected 31.0 elapsed hours, got %f", acc.ElapsedHours)
	}
}

func TestWalkTransitionsPausedBusinessHoursPolicy(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	acc, _ := WalkTransitions(WorkItem{ID: 1}, scenarioTransitions(), cats, clock, true)

	// Business-filtered pause: 14:00-17:00 day 1 (3h) + nothing overnight.
	if math.Abs(acc.PausedHours-3.0) > 1e-9 {
		t.Errorf("Expected 3.0 business-filtered paused hours, got %f", acc.PausedHours)
	}
}

func TestWalkTransitionsIdempotent(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()
	item := WorkItem{ID: 7}
	transitions := scenarioTransitions()

	first, _ := WalkTransitions(item, transitions, cats, clock, false)
	second, _ := WalkTransitions(item, transitions, cats, clock, false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Walker is not idempotent: %+v vs %+v", first, second)
	}
}

func TestWalkTransitionsReopenDetection(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	transitions := []StateTransition{
		{Revision: 1, State: "Active", Timestamp: day.Add(9 * time.Hour)},
		{Revision: 2, State: "Closed", Timestamp: day.Add(12 * time.Hour)},
		{Revision: 3, State: "Active", Timestamp: day.Add(13 * time.Hour)},
		{Revision: 4, State: "Closed", Timestamp: day.Add(16 * time.Hour)},
	}

	acc, _ := WalkTransitions(WorkItem{ID: 2}, transitions, cats, clock, false)

	if !acc.WasReopened() || acc.ReopenCount != 1 {
		t.Errorf("Expected one reopen, got count %d", acc.ReopenCount)
	}
	// 13:00-16:00 productive after the reopen.
	if math.Abs(acc.ActiveAfterReopenHours-3.0) > 1e-9 {
		t.Errorf("Expected 3.0 active hours after reopen, got %f", acc.ActiveAfterReopenHours)
	}
	if acc.CompletedAt == nil {
		t.Error("Reopened then re-closed item should still have a terminal completion")
	}
}

func TestWalkTransitionsOpenItemHasNoCompletion(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	transitions := []StateTransition{
		{Revision: 1, State: "New", Timestamp: day.Add(9 * time.Hour)},
		{Revision: 2, State: "Active", Timestamp: day.Add(10 * time.Hour)},
	}

	acc, _ := WalkTransitions(WorkItem{ID: 3}, transitions, cats, clock, false)
	if acc.CompletedAt != nil {
		t.Errorf("Open item must not have a completion timestamp, got %v", acc.CompletedAt)
	}
}

func TestWalkTransitionsNonMonotonicTimestamps(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	transitions := []StateTransition{
		{Revision: 1, State: "Active", Timestamp: day.Add(12 * time.Hour)},
		{Revision: 2, State: "Blocked", Timestamp: day.Add(10 * time.Hour)}, // clock skew
		{Revision: 3, State: "Closed", Timestamp: day.Add(16 * time.Hour)},
	}

	acc, diags := WalkTransitions(WorkItem{ID: 4}, transitions, cats, clock, false)

	if len(diags) != 1 {
		t.Fatalf("Expected one non-monotonic diagnostic, got %d", len(diags))
	}
	if diags[0].Kind != DiagData || diags[0].ItemID != 4 {
		t.Errorf("Unexpected diagnostic: %+v", diags[0])
	}
	// The item is still processed: the later interval 10:00-16:00 in Blocked
	// counts as paused.
	if acc.PausedHours != 6.0 {
		t.Errorf("Expected 6.0 paused hours after recovery, got %f", acc.PausedHours)
	}
	if acc.CompletedAt == nil {
		t.Error("Expected the item to still reach completion")
	}
}

func TestWalkTransitionsCreationDateAnchorsFirstInterval(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	created := day.Add(9 * time.Hour)
	item := WorkItem{ID: 5, CreatedDate: &created}

	// First recorded transition is already Active at 11:00; creation at 9:00
	// extends the first interval back.
	transitions := []StateTransition{
		{Revision: 1, State: "Active", Timestamp: day.Add(11 * time.Hour)},
		{Revision: 2, State: "Closed", Timestamp: day.Add(15 * time.Hour)},
	}

	acc, _ := WalkTransitions(item, transitions, cats, clock, false)

	// 9:00-15:00 productive: anchored at creation, not at the first revision.
	if math.Abs(acc.ProductiveHours-6.0) > 1e-9 {
		t.Errorf("Expected 6.0 productive hours from creation anchor, got %f", acc.ProductiveHours)
	}
}

func TestWalkTransitionsIgnoredState(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	transitions := []StateTransition{
		{Revision: 1, State: "New", Timestamp: day.Add(9 * time.Hour)},
		{Revision: 2, State: "Removed", Timestamp: day.Add(10 * time.Hour)},
	}

	acc, _ := WalkTransitions(WorkItem{ID: 6}, transitions, cats, clock, false)
	if !acc.ShouldIgnore {
		t.Error("Expected item entering an ignored state to be flagged")
	}
}

func TestWalkTransitionsUnknownStateDiagnostic(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	transitions := []StateTransition{
		{Revision: 1, State: "Triage", Timestamp: day.Add(9 * time.Hour)},
		{Revision: 2, State: "Triage", Timestamp: day.Add(10 * time.Hour)},
		{Revision: 3, State: "Closed", Timestamp: day.Add(11 * time.Hour)},
	}

	acc, diags := WalkTransitions(WorkItem{ID: 8}, transitions, cats, clock, false)

	if len(diags) != 1 {
		t.Fatalf("Expected a single diagnostic for the unknown state, got %d", len(diags))
	}
	// Unknown state defaults to productive, so 9:00-11:00 counts.
	if math.Abs(acc.ProductiveHours-2.0) > 1e-9 {
		t.Errorf("Expected 2.0 productive hours via default category, got %f", acc.ProductiveHours)
	}
}

func TestWalkTransitionsDwellTracking(t *testing.T) {
	cats := testCategories(t)
	clock := testClock()

	acc, _ := WalkTransitions(WorkItem{ID: 9}, scenarioTransitions(), cats, clock, false)

	active := acc.Dwell["Active"]
	if active.Entries != 2 {
		t.Errorf("Expected 2 Active dwell entries, got %d", active.Entries)
	}
	// Raw wall-clock: 4h + 7h.
	if math.Abs(active.Hours-11.0) > 1e-9 {
		t.Errorf("Expected 11.0 raw Active hours, got %f", active.Hours)
	}

	blocked := acc.Dwell["Blocked"]
	if blocked.Entries != 1 || math.Abs(blocked.Hours-19.0) > 1e-9 {
		t.Errorf("Expected one 19.0h Blocked dwell, got %d entries %f hours", blocked.Entries, blocked.Hours)
	}

	// The terminal state has no subsequent transition, so no dwell.
	if _, ok := acc.Dwell["Closed"]; ok {
		t.Error("Terminal state should not accumulate dwell")
	}
}
