package scoring

import "math"

const elapsedEpsilon = 1e-6

// ScoreItem combines accounting, estimate and delivery results into the
// per-item score record.
//
// Fair efficiency is value-weighted: completed work earns a bonus fraction of
// the estimate and early delivery adds timing bonus hours, so scores above
// 100 are legitimate; the configured cap bounds the result. Traditional
// efficiency is a plain active/elapsed ratio kept purely as a diagnostic.
func ScoreItem(item WorkItem, acc Accounting, estimated float64, source EstimateSource, del DeliveryResult, p Params) ItemScore {
	score := ItemScore{
		ID:          item.ID,
		Title:       item.Title,
		ProjectName: item.ProjectName,
		AssignedTo:  item.AssignedTo,
		State:       item.State,
		Type:        item.Type,

		EstimatedHours: estimated,
		EstimateSource: source,
		ActiveHours:    acc.ProductiveHours,
		PausedHours:    acc.PausedHours,

		Completed:       acc.CompletedAt != nil,
		DeliveryScore:   del.Score,
		DaysAheadBehind: del.DaysAheadBehind,
		TimingBonus:     del.TimingBonusHours,

		WasReopened:            acc.WasReopened(),
		ReopenCount:            acc.ReopenCount,
		ActiveAfterReopenHours: acc.ActiveAfterReopenHours,
	}

	if score.Completed {
		score.CompletionBonus = p.CompletionBonusRate * estimated
	}

	// Arithmetic guard: the denominator is floored at the configured minimum
	// estimate so it can never reach zero.
	denominator := estimated
	if denominator < p.Estimate.MinimumHours {
		denominator = p.Estimate.MinimumHours
	}
	denominator += del.MitigationHours

	fair := 100 * (acc.ProductiveHours + score.CompletionBonus + del.TimingBonusHours) / denominator
	score.FairEfficiency = math.Min(fair, p.EfficiencyCap)

	score.TraditionalEfficiency = 100 * acc.ProductiveHours / math.Max(elapsedEpsilon, acc.ElapsedHours)

	return score
}
