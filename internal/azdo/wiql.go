package azdo

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateField is the timeframe filter field when none is configured.
const DefaultDateField = "Microsoft.VSTS.Common.ClosedDate"

// Query describes the work item population to fetch from one project.
type Query struct {
	Project string
	States  []string
	Types   []string

	// DateField is the field reference name the From/To bounds apply to.
	DateField string
	From      *time.Time
	To        *time.Time
}

// BuildWorkItemQuery constructs the WIQL statement selecting the item IDs to
// analyze. Empty state and type lists drop the corresponding clause; From/To
// bound the configured date field inclusively.
func BuildWorkItemQuery(q Query) string {
	var b strings.Builder
	b.WriteString("SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = ")
	b.WriteString(quoteWiql(q.Project))

	if len(q.States) > 0 {
		b.WriteString(" AND [System.State] IN (")
		b.WriteString(quoteWiqlList(q.States))
		b.WriteString(")")
	}
	if len(q.Types) > 0 {
		b.WriteString(" AND [System.WorkItemType] IN (")
		b.WriteString(quoteWiqlList(q.Types))
		b.WriteString(")")
	}

	dateField := q.DateField
	if dateField == "" {
		dateField = DefaultDateField
	}
	if q.From != nil {
		fmt.Fprintf(&b, " AND [%s] >= '%s'", dateField, q.From.Format("2006-01-02"))
	}
	if q.To != nil {
		fmt.Fprintf(&b, " AND [%s] <= '%s'", dateField, q.To.Format("2006-01-02"))
	}

	b.WriteString(" ORDER BY [System.ChangedDate] DESC")
	return b.String()
}

// quoteWiql quotes a WIQL string literal. Single quotes are doubled; WIQL has
// no other escape mechanism.
func quoteWiql(s string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", "''"))
}

func quoteWiqlList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quoteWiql(v))
	}
	return strings.Join(quoted, ", ")
}
