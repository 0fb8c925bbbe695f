package scoring

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Analyzer runs the full scoring pipeline over already-fetched inputs.
// It owns no shared mutable state beyond its immutable Params, so a single
// instance may score any number of batches; each Analyze call computes fresh.
type Analyzer struct {
	params   Params
	warnings []Diagnostic
}

// NewAnalyzer validates the parameters and returns a ready analyzer.
// Validation failures are fatal configuration errors surfaced before any
// item is processed.
func NewAnalyzer(p Params) (*Analyzer, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return &Analyzer{params: p, warnings: p.Warnings()}, nil
}

// Params returns the analyzer's immutable configuration.
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze scores every input item, folds the per-assignee aggregates and
// ranks cross-state bottlenecks. Items that entered an Ignored state are
// excluded from scoring and reported in diagnostics. The result carries all
// recovered problems; nothing is silently dropped.
func (a *Analyzer) Analyze(inputs []ItemInput) Result {
	res := Result{
		Diagnostics: append([]Diagnostic(nil), a.warnings...),
	}

	dwell := make(map[string]StateDwell)
	excluded := 0

	for _, in := range inputs {
		acc, diags := WalkTransitions(in.Item, in.Transitions, a.params.Categories, a.params.Clock, a.params.PausedUsesBusinessHours)
		res.Diagnostics = append(res.Diagnostics, diags...)

		if acc.ShouldIgnore {
			excluded++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    DiagExcluded,
				ItemID:  in.Item.ID,
				Message: "item entered an ignored state and is excluded from scoring",
			})
			continue
		}

		for state, d := range acc.Dwell {
			agg := dwell[state]
			agg.Hours += d.Hours
			agg.Entries += d.Entries
			dwell[state] = agg
		}

		estimated, source := ResolveEstimate(in.Item, a.params.Clock, a.params.Estimate)

		// The walker decides whether the item reached Completed; the closed
		// date field is only a more precise timestamp for the same event.
		completed := acc.CompletedAt
		if completed != nil && in.Item.ClosedDate != nil {
			completed = in.Item.ClosedDate
		}
		del := EvaluateDelivery(in.Item.TargetDate, completed, a.params.Clock, a.params.DeliveryTable)

		res.Items = append(res.Items, ScoreItem(in.Item, acc, estimated, source, del, a.params))
	}

	res.Assignees = AggregateAssignees(res.Items, a.params.Weights)
	res.Bottlenecks = RankBottlenecks(dwell, a.params.BottleneckTopK)
	res.Summary = Summarize(res.Items, res.Assignees, excluded)

	log.Debug().
		Int("items", len(res.Items)).
		Int("excluded", excluded).
		Int("assignees", len(res.Assignees)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("Analysis complete")

	return res
}
