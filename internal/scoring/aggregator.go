package scoring

import (
	"math"
	"sort"
)

// Unassigned is the grouping key for items without an assignee.
const Unassigned = "Unassigned"

// assigneeFold holds the commutative accumulators for one assignee. Every
// field is a sum or a count, so fold order cannot affect the result.
type assigneeFold struct {
	total             int
	completed         int
	withActivity      int
	onTime            int
	reopened          int
	sumFairEfficiency float64
	sumDeliveryScore  float64
	sumDaysOffset     float64
	sumActiveHours    float64
	sumEstimated      float64
	buckets           DeliveryBuckets
}

// AggregateAssignees folds item scores grouped by assignee into per-assignee
// KPIs. The output is sorted by overall score descending (name ascending on
// ties) for stable reporting; the fold itself is order-independent.
func AggregateAssignees(items []ItemScore, weights ScoreWeights) []AssigneeAggregate {
	folds := make(map[string]*assigneeFold)

	for _, item := range items {
		name := item.AssignedTo
		if name == "" {
			name = Unassigned
		}
		f := folds[name]
		if f == nil {
			f = &assigneeFold{}
			folds[name] = f
		}

		f.total++
		f.sumActiveHours += item.ActiveHours
		f.sumEstimated += item.EstimatedHours

		if item.ActiveHours > 0 {
			// Items with no recorded activity (administrative entries) must
			// not dilute the efficiency signal.
			f.withActivity++
			f.sumFairEfficiency += item.FairEfficiency
		}

		if item.WasReopened {
			// Reopens count whether or not the rework has finished yet.
			f.reopened++
		}

		if !item.Completed {
			continue
		}
		f.completed++
		f.sumDeliveryScore += item.DeliveryScore
		f.sumDaysOffset += float64(item.DaysAheadBehind)

		days := item.DaysAheadBehind
		if days <= 0 {
			f.onTime++
		}
		switch {
		case days <= -1:
			f.buckets.Early++
		case days == 0:
			f.buckets.OnTime++
		case days <= 3:
			f.buckets.Late1to3++
		case days <= 7:
			f.buckets.Late4to7++
		case days <= 14:
			f.buckets.Late8to14++
		default:
			f.buckets.Late15Plus++
		}
	}

	aggregates := make([]AssigneeAggregate, 0, len(folds))
	for name, f := range folds {
		agg := AssigneeAggregate{
			Assignee:            name,
			TotalItems:          f.total,
			CompletedItems:      f.completed,
			ItemsWithActivity:   f.withActivity,
			TotalActiveHours:    f.sumActiveHours,
			TotalEstimatedHours: f.sumEstimated,
			ReopenedItems:       f.reopened,
			Buckets:             f.buckets,
		}

		if f.total > 0 {
			agg.CompletionRate = 100 * float64(f.completed) / float64(f.total)
			agg.ReopenedRate = 100 * float64(f.reopened) / float64(f.total)
		}
		if f.withActivity > 0 {
			agg.AvgFairEfficiency = f.sumFairEfficiency / float64(f.withActivity)
		}
		if f.completed > 0 {
			agg.OnTimeRate = 100 * float64(f.onTime) / float64(f.completed)
			agg.AvgDeliveryScore = f.sumDeliveryScore / float64(f.completed)
			agg.AvgDaysAheadBehind = f.sumDaysOffset / float64(f.completed)
		}

		agg.OverallScore = weights.FairEfficiency*agg.AvgFairEfficiency +
			weights.DeliveryScore*agg.AvgDeliveryScore +
			weights.CompletionRate*agg.CompletionRate +
			weights.OnTimeRate*math.Min(100, agg.OnTimeRate)

		aggregates = append(aggregates, agg)
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].OverallScore != aggregates[j].OverallScore {
			return aggregates[i].OverallScore > aggregates[j].OverallScore
		}
		return aggregates[i].Assignee < aggregates[j].Assignee
	})

	return aggregates
}

// RankBottlenecks averages unfiltered per-state dwell across all occurrences
// and returns the top-k states by average, descending.
func RankBottlenecks(dwell map[string]StateDwell, topK int) []BottleneckEntry {
	entries := make([]BottleneckEntry, 0, len(dwell))
	for state, d := range dwell {
		if d.Entries == 0 {
			continue
		}
		entries = append(entries, BottleneckEntry{
			State:        state,
			AverageHours: d.Hours / float64(d.Entries),
			Occurrences:  d.Entries,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AverageHours != entries[j].AverageHours {
			return entries[i].AverageHours > entries[j].AverageHours
		}
		return entries[i].State < entries[j].State
	})

	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}
	return entries
}

// Summarize produces the organization-wide rollup from scored items and
// their assignee aggregates.
func Summarize(items []ItemScore, aggregates []AssigneeAggregate, excluded int) Summary {
	s := Summary{
		TotalItems:     len(items),
		ExcludedItems:  excluded,
		TotalAssignees: len(aggregates),
	}

	for _, item := range items {
		s.TotalActiveHours += item.ActiveHours
	}
	if len(aggregates) == 0 {
		return s
	}

	var sumFair, sumDelivery float64
	for _, agg := range aggregates {
		sumFair += agg.AvgFairEfficiency
		sumDelivery += agg.AvgDeliveryScore
	}
	s.AvgFairEfficiency = sumFair / float64(len(aggregates))
	s.AvgDeliveryScore = sumDelivery / float64(len(aggregates))
	return s
}
