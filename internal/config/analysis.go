package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
)

// Analysis is the JSON analysis configuration: which items to query and how
// to score them. Missing file or missing keys fail closed to the documented
// defaults with a warning; semantically invalid values are fatal and are
// surfaced by Params before any item is processed.
type Analysis struct {
	Query             QueryConfig          `json:"work_item_query"`
	StateCategories   StateCategoryConfig  `json:"state_categories"`
	BusinessHours     BusinessHoursConfig  `json:"business_hours"`
	EfficiencyScoring EfficiencyConfig     `json:"efficiency_scoring"`
	DeliveryScoring   DeliveryConfig       `json:"delivery_scoring"`
	DeveloperScoring  DeveloperConfig      `json:"developer_scoring"`
	Bottlenecks       BottleneckConfig     `json:"bottlenecks"`
}

// QueryConfig drives the WIQL query construction in the fetch layer.
type QueryConfig struct {
	StatesToFetch []string `json:"states_to_fetch"`
	WorkItemTypes []string `json:"work_item_types"`
	DateField     string   `json:"date_field"`
}

// StateCategoryConfig partitions raw state names into the five categories.
type StateCategoryConfig struct {
	AssignedStates   []string `json:"assigned_states"`
	ProductiveStates []string `json:"productive_states"`
	PauseStates      []string `json:"pause_stopper_states"`
	CompletionStates []string `json:"completion_states"`
	IgnoredStates    []string `json:"ignored_states"`
}

type BusinessHoursConfig struct {
	OfficeStartHour int     `json:"office_start_hour"`
	OfficeEndHour   int     `json:"office_end_hour"`
	MaxHoursPerDay  float64 `json:"max_hours_per_day"`
	Timezone        string  `json:"timezone"`
	// WorkingDays uses ISO numbering: 1 = Monday .. 7 = Sunday.
	WorkingDays []int `json:"working_days"`
}

type EfficiencyConfig struct {
	CompletionBonusRate     float64            `json:"completion_bonus_percentage"`
	MaxEfficiencyCap        float64            `json:"max_efficiency_cap"`
	MinimumEstimateHours    float64            `json:"minimum_estimate_hours"`
	PausedUsesBusinessHours bool               `json:"paused_uses_business_hours"`
	DefaultWorkItemHours    map[string]float64 `json:"default_work_item_hours"`
}

type DeliveryConfig struct {
	Bands []DeliveryBandConfig `json:"bands"`
}

type DeliveryBandConfig struct {
	MaxDaysLate      int     `json:"max_days_late"`
	Score            float64 `json:"score"`
	BonusPerDayEarly float64 `json:"bonus_per_day_early"`
	MitigationHours  float64 `json:"mitigation_hours"`
}

type DeveloperConfig struct {
	Weights WeightsConfig `json:"weights"`
}

type WeightsConfig struct {
	FairEfficiency float64 `json:"fair_efficiency"`
	DeliveryScore  float64 `json:"delivery_score"`
	CompletionRate float64 `json:"completion_rate"`
	OnTimeRate     float64 `json:"on_time_delivery"`
}

type BottleneckConfig struct {
	TopK int `json:"top_k"`
}

// DefaultAnalysis returns the shipped analysis configuration.
func DefaultAnalysis() Analysis {
	return Analysis{
		Query: QueryConfig{
			StatesToFetch: []string{"New", "Active", "In Progress", "Resolved", "Closed", "Done"},
			WorkItemTypes: []string{"Task", "User Story", "Bug", "Feature"},
			DateField:     "Microsoft.VSTS.Common.ClosedDate",
		},
		StateCategories: StateCategoryConfig{
			AssignedStates:   []string{"New"},
			ProductiveStates: []string{"Active", "In Progress", "Development", "Code Review", "Testing"},
			PauseStates:      []string{"Stopper", "Blocked", "On Hold", "Waiting"},
			CompletionStates: []string{"Resolved", "Closed", "Done"},
			IgnoredStates:    []string{"Removed", "Discarded", "Cancelled"},
		},
		BusinessHours: BusinessHoursConfig{
			OfficeStartHour: 9,
			OfficeEndHour:   17,
			MaxHoursPerDay:  8,
			Timezone:        "America/Mexico_City",
			WorkingDays:     []int{1, 2, 3, 4, 5},
		},
		EfficiencyScoring: EfficiencyConfig{
			CompletionBonusRate:  0.20,
			MaxEfficiencyCap:     150,
			MinimumEstimateHours: 4,
			DefaultWorkItemHours: map[string]float64{
				"user story": 8,
				"task":       4,
				"bug":        2,
				"default":    4,
			},
		},
		DeveloperScoring: DeveloperConfig{
			Weights: WeightsConfig{
				FairEfficiency: 0.4,
				DeliveryScore:  0.3,
				CompletionRate: 0.2,
				OnTimeRate:     0.1,
			},
		},
		Bottlenecks: BottleneckConfig{TopK: 5},
	}
}

// LoadAnalysis reads the analysis configuration from path. The file is
// optional; a missing or unreadable file falls back to defaults with an
// explicit warning so a misplaced file never silently changes scoring.
func LoadAnalysis(path string) (Analysis, []scoring.Diagnostic) {
	analysis := DefaultAnalysis()
	var warnings []scoring.Diagnostic

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("No analysis config file, using defaults")
			return analysis, warnings
		}
		warnings = append(warnings, scoring.Diagnostic{
			Kind:    scoring.DiagConfig,
			Message: fmt.Sprintf("analysis config %s unreadable (%v), using defaults", path, err),
		})
		log.Warn().Err(err).Str("path", path).Msg("Analysis config unreadable, using defaults")
		return analysis, warnings
	}

	// Unmarshalling over the defaults keeps every key the file omits.
	if err := json.Unmarshal(data, &analysis); err != nil {
		warnings = append(warnings, scoring.Diagnostic{
			Kind:    scoring.DiagConfig,
			Message: fmt.Sprintf("analysis config %s invalid (%v), using defaults", path, err),
		})
		log.Warn().Err(err).Str("path", path).Msg("Analysis config invalid, using defaults")
		return DefaultAnalysis(), warnings
	}

	warnings = append(warnings, analysis.failClosed()...)
	log.Info().Str("path", path).Msg("Loaded analysis configuration")
	return analysis, warnings
}

// failClosed restores defaults for sections that decoded to unusable empty
// values. An empty category set must never reach the engine.
func (a *Analysis) failClosed() []scoring.Diagnostic {
	var warnings []scoring.Diagnostic
	defaults := DefaultAnalysis()

	warn := func(msg string) {
		warnings = append(warnings, scoring.Diagnostic{Kind: scoring.DiagConfig, Message: msg})
		log.Warn().Msg(msg)
	}

	if len(a.StateCategories.ProductiveStates) == 0 {
		a.StateCategories.ProductiveStates = defaults.StateCategories.ProductiveStates
		warn("productive state list empty, restored defaults")
	}
	if len(a.StateCategories.CompletionStates) == 0 {
		a.StateCategories.CompletionStates = defaults.StateCategories.CompletionStates
		warn("completion state list empty, restored defaults")
	}
	if len(a.BusinessHours.WorkingDays) == 0 {
		a.BusinessHours.WorkingDays = defaults.BusinessHours.WorkingDays
		warn("working day list empty, restored defaults")
	}
	if len(a.Query.StatesToFetch) == 0 {
		a.Query.StatesToFetch = defaults.Query.StatesToFetch
		warn("states_to_fetch empty, restored defaults")
	}
	if a.EfficiencyScoring.MinimumEstimateHours == 0 {
		a.EfficiencyScoring.MinimumEstimateHours = defaults.EfficiencyScoring.MinimumEstimateHours
		warn("minimum estimate unset, restored default")
	}
	return warnings
}

// Params converts the analysis configuration into validated engine
// parameters. Overlapping category lists, an unknown timezone or weights not
// summing to 1.0 are fatal configuration errors.
func (a Analysis) Params() (scoring.Params, error) {
	categories, err := scoring.NewCategoryMap(
		a.StateCategories.AssignedStates,
		a.StateCategories.ProductiveStates,
		a.StateCategories.PauseStates,
		a.StateCategories.CompletionStates,
		a.StateCategories.IgnoredStates,
		scoring.CategoryProductive,
	)
	if err != nil {
		return scoring.Params{}, err
	}

	loc, err := time.LoadLocation(a.BusinessHours.Timezone)
	if err != nil {
		return scoring.Params{}, fmt.Errorf("unknown timezone %q: %w", a.BusinessHours.Timezone, err)
	}

	workingDays := make(map[time.Weekday]bool)
	for _, iso := range a.BusinessHours.WorkingDays {
		if iso < 1 || iso > 7 {
			return scoring.Params{}, fmt.Errorf("working day %d outside ISO range 1-7", iso)
		}
		workingDays[time.Weekday(iso%7)] = true
	}

	table := scoring.DefaultDeliveryTable()
	if len(a.DeliveryScoring.Bands) > 0 {
		table = make([]scoring.DeliveryBand, 0, len(a.DeliveryScoring.Bands))
		for _, b := range a.DeliveryScoring.Bands {
			table = append(table, scoring.DeliveryBand{
				MaxDays:          b.MaxDaysLate,
				Score:            b.Score,
				BonusPerDayEarly: b.BonusPerDayEarly,
				MitigationHours:  b.MitigationHours,
			})
		}
	}

	// Estimate lookup is by lowercased type name, so "User Story" and
	// "user story" configure the same entry.
	hoursByType := make(map[string]float64, len(a.EfficiencyScoring.DefaultWorkItemHours))
	defaultHours := 4.0
	for itemType, hours := range a.EfficiencyScoring.DefaultWorkItemHours {
		key := strings.ToLower(itemType)
		if key == "default" {
			defaultHours = hours
			continue
		}
		hoursByType[key] = hours
	}

	p := scoring.Params{
		Clock: scoring.NewBusinessClock(
			a.BusinessHours.OfficeStartHour,
			a.BusinessHours.OfficeEndHour,
			a.BusinessHours.MaxHoursPerDay,
			loc,
			workingDays,
		),
		Categories:          categories,
		CompletionBonusRate: a.EfficiencyScoring.CompletionBonusRate,
		EfficiencyCap:       a.EfficiencyScoring.MaxEfficiencyCap,
		Estimate: scoring.EstimateParams{
			MinimumHours: a.EfficiencyScoring.MinimumEstimateHours,
			HoursByType:  hoursByType,
			DefaultHours: defaultHours,
		},
		DeliveryTable: table,
		Weights: scoring.ScoreWeights{
			FairEfficiency: a.DeveloperScoring.Weights.FairEfficiency,
			DeliveryScore:  a.DeveloperScoring.Weights.DeliveryScore,
			CompletionRate: a.DeveloperScoring.Weights.CompletionRate,
			OnTimeRate:     a.DeveloperScoring.Weights.OnTimeRate,
		},
		PausedUsesBusinessHours: a.EfficiencyScoring.PausedUsesBusinessHours,
		BottleneckTopK:          a.Bottlenecks.TopK,
	}

	if err := p.Validate(); err != nil {
		return scoring.Params{}, err
	}
	return p, nil
}
