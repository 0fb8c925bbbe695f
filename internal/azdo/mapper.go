package azdo

import (
	"slices"
	"time"

	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
)

// MapWorkItem transforms a work item DTO into the engine's domain snapshot.
// Unparseable dates are dropped to nil rather than failing the item.
func MapWorkItem(dto WorkItemDTO) scoring.WorkItem {
	item := scoring.WorkItem{
		ID:               dto.ID,
		Type:             dto.Fields.WorkItemType,
		Title:            dto.Fields.Title,
		AssignedTo:       dto.Fields.AssignedTo.DisplayName,
		State:            dto.Fields.State,
		ProjectName:      dto.Fields.TeamProject,
		AreaPath:         dto.Fields.AreaPath,
		IterationPath:    dto.Fields.IterationPath,
		OriginalEstimate: dto.Fields.OriginalEstimate,
	}

	item.CreatedDate = parseOptional(dto.ID, "System.CreatedDate", dto.Fields.CreatedDate)
	item.ChangedDate = parseOptional(dto.ID, "System.ChangedDate", dto.Fields.ChangedDate)
	item.StartDate = parseOptional(dto.ID, "Microsoft.VSTS.Scheduling.StartDate", dto.Fields.StartDate)
	item.TargetDate = parseOptional(dto.ID, "Microsoft.VSTS.Scheduling.TargetDate", dto.Fields.TargetDate)
	item.ClosedDate = parseOptional(dto.ID, "Microsoft.VSTS.Common.ClosedDate", dto.Fields.ClosedDate)

	return item
}

// MapUpdates extracts the state transition history from a work item's
// revision list. Revisions that do not change System.State are skipped; the
// transition timestamp is the revision's System.ChangedDate new value, with
// revisedDate as fallback. Azure DevOps stamps some revisions with a year
// 9999 placeholder date, those fall back too.
func MapUpdates(itemID int, updates []UpdateDTO) []scoring.StateTransition {
	var transitions []scoring.StateTransition

	for _, u := range updates {
		stateChange, ok := u.Fields["System.State"]
		if !ok {
			continue
		}
		newState := stateChange.NewString()
		if newState == "" {
			continue
		}

		raw := u.Fields["System.ChangedDate"].NewString()
		ts, err := ParseTime(raw)
		if err != nil || ts.Year() >= 9999 {
			ts, err = ParseTime(u.RevisedDate)
			if err != nil || ts.Year() >= 9999 {
				log.Warn().Int("item", itemID).Int("rev", u.Rev).
					Msg("State change without usable timestamp, skipping revision")
				continue
			}
		}

		transitions = append(transitions, scoring.StateTransition{
			Revision:  u.Rev,
			State:     newState,
			Timestamp: ts.UTC(),
			ChangedBy: u.RevisedBy.DisplayName,
			Reason:    u.Fields["System.Reason"].NewString(),
		})
	}

	slices.SortFunc(transitions, func(a, b scoring.StateTransition) int {
		return a.Revision - b.Revision
	})
	return transitions
}

func parseOptional(itemID int, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		log.Warn().Int("item", itemID).Str("field", field).Str("value", raw).
			Msg("Unparseable date field, ignoring")
		return nil
	}
	utc := t.UTC()
	return &utc
}
