package scoring

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// ScoreWeights blend the four assignee-level components into the overall
// score. They must sum to 1.0.
type ScoreWeights struct {
	FairEfficiency float64
	DeliveryScore  float64
	CompletionRate float64
	OnTimeRate     float64
}

// DefaultScoreWeights returns the documented default weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		FairEfficiency: 0.4,
		DeliveryScore:  0.3,
		CompletionRate: 0.2,
		OnTimeRate:     0.1,
	}
}

func (w ScoreWeights) sum() float64 {
	return w.FairEfficiency + w.DeliveryScore + w.CompletionRate + w.OnTimeRate
}

// Params is the complete, immutable configuration of the scoring engine.
// It is constructed once per run and passed by reference everywhere; there
// is no ambient configuration lookup.
type Params struct {
	Clock      BusinessClock
	Categories *CategoryMap

	CompletionBonusRate float64
	EfficiencyCap       float64
	Estimate            EstimateParams
	DeliveryTable       []DeliveryBand
	Weights             ScoreWeights

	// PausedUsesBusinessHours switches Paused accounting from raw wall-clock
	// to office-hours counting, for parity with older report runs.
	PausedUsesBusinessHours bool

	BottleneckTopK int
}

// DefaultParams returns engine defaults for everything except the category
// map, which has no safe universal value and must come from configuration.
func DefaultParams(categories *CategoryMap) Params {
	return Params{
		Clock:               NewBusinessClock(9, 17, 8, nil, nil),
		Categories:          categories,
		CompletionBonusRate: 0.20,
		EfficiencyCap:       150,
		Estimate:            DefaultEstimateParams(),
		DeliveryTable:       DefaultDeliveryTable(),
		Weights:             DefaultScoreWeights(),
		BottleneckTopK:      5,
	}
}

// Validate reports every fatal configuration problem at once. It must pass
// before any item is processed.
func (p Params) Validate() error {
	var errs *multierror.Error

	if p.Categories == nil {
		errs = multierror.Append(errs, fmt.Errorf("category map is required"))
	}
	if p.Clock.OfficeStartHour < 0 || p.Clock.OfficeEndHour > 24 || p.Clock.OfficeStartHour >= p.Clock.OfficeEndHour {
		errs = multierror.Append(errs, fmt.Errorf("office window [%d, %d) is invalid",
			p.Clock.OfficeStartHour, p.Clock.OfficeEndHour))
	}
	if len(p.Clock.WorkingDays) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("working day set is empty"))
	}
	if p.Clock.MaxHoursPerDay <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("max hours per day must be positive, got %.2f", p.Clock.MaxHoursPerDay))
	}
	if p.EfficiencyCap <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("efficiency cap must be positive, got %.2f", p.EfficiencyCap))
	}
	if p.CompletionBonusRate < 0 {
		errs = multierror.Append(errs, fmt.Errorf("completion bonus rate must not be negative, got %.2f", p.CompletionBonusRate))
	}
	if p.Estimate.MinimumHours <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("minimum estimate must be positive, got %.2f", p.Estimate.MinimumHours))
	}
	if p.BottleneckTopK <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("bottleneck top-k must be positive, got %d", p.BottleneckTopK))
	}
	if err := ValidateDeliveryTable(p.DeliveryTable); err != nil {
		errs = multierror.Append(errs, err)
	}
	if sum := p.Weights.sum(); math.Abs(sum-1.0) > 1e-9 {
		errs = multierror.Append(errs, fmt.Errorf("score weights sum to %.4f, expected 1.0", sum))
	}

	return errs.ErrorOrNil()
}

// Warnings returns non-fatal configuration findings.
func (p Params) Warnings() []Diagnostic {
	var diags []Diagnostic

	if p.Clock.MaxHoursPerDay > 0 && p.Clock.MaxHoursPerDay < p.Clock.WindowHours() {
		// With a cap below the office window length, counted hours are no
		// longer additive over arbitrary interval partitions.
		diags = append(diags, Diagnostic{
			Kind: DiagConfig,
			Message: fmt.Sprintf("daily cap %.1fh is below the %.1fh office window; partition additivity does not hold",
				p.Clock.MaxHoursPerDay, p.Clock.WindowHours()),
		})
	}
	if p.Categories != nil && !p.Categories.HasCompleted() {
		diags = append(diags, Diagnostic{
			Kind:    DiagConfig,
			Message: "no state maps to the completed category; completion bonuses are unreachable",
		})
	}
	return diags
}
