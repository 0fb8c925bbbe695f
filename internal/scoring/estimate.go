package scoring

import "strings"

// EstimateParams configures the estimated-hours baseline resolution.
type EstimateParams struct {
	// MinimumHours floors date-derived estimates so same-day spans never
	// produce a degenerate denominator.
	MinimumHours float64
	// HoursByType maps lowercased item types to fallback estimates.
	HoursByType map[string]float64
	// DefaultHours is used when the item type has no fallback entry.
	DefaultHours float64
}

// DefaultEstimateParams mirrors the shipped fallback table.
func DefaultEstimateParams() EstimateParams {
	return EstimateParams{
		MinimumHours: 4,
		HoursByType: map[string]float64{
			"user story": 8,
			"task":       4,
			"bug":        2,
		},
		DefaultHours: 4,
	}
}

// ResolveEstimate computes the estimated-hours baseline for an item. Exactly
// one source is used, in priority order: the explicit estimate field, the
// clock-counted start-to-target span, then the per-type fallback table.
func ResolveEstimate(item WorkItem, clock BusinessClock, p EstimateParams) (float64, EstimateSource) {
	if item.OriginalEstimate > 0 {
		return item.OriginalEstimate, EstimateExplicit
	}

	if item.StartDate != nil && item.TargetDate != nil {
		hours := clock.CountedHours(*item.StartDate, *item.TargetDate)
		if hours < p.MinimumHours {
			hours = p.MinimumHours
		}
		return hours, EstimateDates
	}

	if hours, ok := p.HoursByType[strings.ToLower(item.Type)]; ok {
		return hours, EstimateFallback
	}
	return p.DefaultHours, EstimateFallback
}
