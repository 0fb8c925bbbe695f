package scoring

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DeliveryBand is one row of the delivery threshold table. A band applies to
// every offset less than or equal to MaxDays that no earlier band claimed;
// the final band catches everything beyond the last bound.
type DeliveryBand struct {
	// MaxDays is the inclusive upper bound in signed business days
	// (negative = early).
	MaxDays int
	Score   float64
	// BonusPerDayEarly is added per business day of earliness.
	BonusPerDayEarly float64
	// MitigationHours widens the efficiency denominator for late delivery.
	MitigationHours float64
}

// DefaultDeliveryTable returns the shipped threshold table.
func DefaultDeliveryTable() []DeliveryBand {
	return []DeliveryBand{
		{MaxDays: -5, Score: 130, BonusPerDayEarly: 1.0},
		{MaxDays: -3, Score: 120, BonusPerDayEarly: 0.5},
		{MaxDays: -1, Score: 110, BonusPerDayEarly: 0.25},
		{MaxDays: 0, Score: 100},
		{MaxDays: 3, Score: 90, MitigationHours: 2},
		{MaxDays: 7, Score: 80, MitigationHours: 4},
		{MaxDays: 14, Score: 70, MitigationHours: 6},
		{MaxDays: 1<<31 - 1, Score: 60, MitigationHours: 8},
	}
}

// ValidateDeliveryTable checks the structural invariants of a threshold
// table: non-empty, strictly increasing bounds, and scores monotonically
// non-increasing as lateness grows.
func ValidateDeliveryTable(table []DeliveryBand) error {
	var errs *multierror.Error

	if len(table) == 0 {
		return fmt.Errorf("delivery table is empty")
	}
	for i := 1; i < len(table); i++ {
		if table[i].MaxDays <= table[i-1].MaxDays {
			errs = multierror.Append(errs, fmt.Errorf("band %d bound %d does not increase over %d",
				i, table[i].MaxDays, table[i-1].MaxDays))
		}
		if table[i].Score > table[i-1].Score {
			errs = multierror.Append(errs, fmt.Errorf("band %d score %.1f exceeds earlier band score %.1f",
				i, table[i].Score, table[i-1].Score))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid delivery table: %w", err)
	}
	return nil
}

// DeliveryResult is the outcome of comparing completion to target.
type DeliveryResult struct {
	// Delivered is false when no completion timestamp exists; such items are
	// excluded from delivery metrics downstream.
	Delivered        bool
	DaysAheadBehind  int
	Score            float64
	TimingBonusHours float64
	MitigationHours  float64
}

// EvaluateDelivery maps the signed business-day offset between completion
// and target onto the threshold table. A completed item without a target is
// treated as delivered on time. An item without a completion timestamp is
// not delivered and scores neutrally.
func EvaluateDelivery(target, completed *time.Time, clock BusinessClock, table []DeliveryBand) DeliveryResult {
	if completed == nil {
		return DeliveryResult{Score: 100}
	}
	if target == nil {
		return DeliveryResult{Delivered: true, Score: 100}
	}

	days := clock.BusinessDaysBetween(*completed, *target)

	band := table[len(table)-1]
	for _, b := range table {
		if days <= b.MaxDays {
			band = b
			break
		}
	}

	res := DeliveryResult{
		Delivered:       true,
		DaysAheadBehind: days,
		Score:           band.Score,
		MitigationHours: band.MitigationHours,
	}
	if days < 0 {
		res.TimingBonusHours = band.BonusPerDayEarly * float64(-days)
	}
	return res
}
