package scoring

import "time"

// WorkItem is the immutable snapshot of a tracked work item as received from
// the fetch layer. All timestamps are UTC; optional dates are nil pointers.
type WorkItem struct {
	ID            int
	Type          string
	Title         string
	AssignedTo    string
	State         string
	ProjectID     string
	ProjectName   string
	AreaPath      string
	IterationPath string

	CreatedDate *time.Time
	ChangedDate *time.Time
	StartDate   *time.Time
	TargetDate  *time.Time
	ClosedDate  *time.Time

	// OriginalEstimate is the explicit estimate in hours, 0 when unset.
	OriginalEstimate float64
}

// StateTransition is one recorded state change of an item.
type StateTransition struct {
	// Revision is the item revision that produced this state, monotonic per item.
	Revision  int
	State     string
	Timestamp time.Time
	ChangedBy string
	Reason    string
}

// ItemInput pairs an item with its ordered transition history (revision ascending).
type ItemInput struct {
	Item        WorkItem
	Transitions []StateTransition
}

// StateDwell accumulates raw wall-clock residency for one raw state name.
type StateDwell struct {
	Hours   float64
	Entries int
}

// Accounting is the result of walking one item's transition history.
type Accounting struct {
	ProductiveHours float64
	PausedHours     float64
	// ElapsedHours is the wall-clock span from the first anchor to the last
	// transition, regardless of category.
	ElapsedHours float64

	ReopenCount            int
	ActiveAfterReopenHours float64

	// FirstProductive is the first entry into a Productive-category state.
	FirstProductive *time.Time
	// CompletedAt is set only when the final observed category is Completed.
	CompletedAt *time.Time

	// ShouldIgnore marks items that entered an Ignored-category state.
	ShouldIgnore bool

	// Dwell holds unfiltered per-state residency, keyed by raw state name.
	Dwell map[string]StateDwell

	Transitions int
}

// WasReopened reports whether the item left Completed back into work.
func (a Accounting) WasReopened() bool {
	return a.ReopenCount > 0
}

// EstimateSource identifies which input produced the estimated-hours baseline.
type EstimateSource string

const (
	EstimateExplicit EstimateSource = "explicit"
	EstimateDates    EstimateSource = "dates"
	EstimateFallback EstimateSource = "fallback"
)

// ItemScore is the scored view of a single work item.
type ItemScore struct {
	ID          int
	Title       string
	ProjectName string
	AssignedTo  string
	State       string
	Type        string

	EstimatedHours float64
	EstimateSource EstimateSource
	ActiveHours    float64
	PausedHours    float64

	FairEfficiency        float64
	TraditionalEfficiency float64

	Completed       bool
	DeliveryScore   float64
	DaysAheadBehind int
	CompletionBonus float64
	TimingBonus     float64

	WasReopened            bool
	ReopenCount            int
	ActiveAfterReopenHours float64
}

// DeliveryBuckets is the per-assignee delivery timing histogram.
type DeliveryBuckets struct {
	Early      int
	OnTime     int
	Late1to3   int
	Late4to7   int
	Late8to14  int
	Late15Plus int
}

// AssigneeAggregate holds the folded KPIs for one assignee.
type AssigneeAggregate struct {
	Assignee string

	TotalItems        int
	CompletedItems    int
	ItemsWithActivity int

	CompletionRate float64
	OnTimeRate     float64

	// AvgFairEfficiency averages only items with ActiveHours > 0.
	AvgFairEfficiency float64
	// AvgDeliveryScore averages all completed items.
	AvgDeliveryScore   float64
	AvgDaysAheadBehind float64
	OverallScore       float64

	TotalActiveHours    float64
	TotalEstimatedHours float64

	// ReopenedItems counts every reopened item, including those whose rework
	// is still open; ReopenedRate is over TotalItems.
	ReopenedItems int
	ReopenedRate  float64

	Buckets DeliveryBuckets
}

// BottleneckEntry ranks one raw state by average dwell across all occurrences.
type BottleneckEntry struct {
	State        string
	AverageHours float64
	Occurrences  int
}

// Summary is the organization-wide rollup.
type Summary struct {
	TotalItems        int
	ExcludedItems     int
	TotalAssignees    int
	AvgFairEfficiency float64
	AvgDeliveryScore  float64
	TotalActiveHours  float64
}

// Result is everything one analysis run produces.
type Result struct {
	Items       []ItemScore
	Assignees   []AssigneeAggregate
	Bottlenecks []BottleneckEntry
	Summary     Summary
	Diagnostics []Diagnostic
}
