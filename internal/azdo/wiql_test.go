package azdo

import (
	"strings"
	"testing"
	"time"
)

func TestBuildWorkItemQuery(t *testing.T) {
	query := BuildWorkItemQuery(Query{
		Project: "Payments",
		States:  []string{"Active", "Closed"},
		Types:   []string{"Task", "Bug"},
	})

	expected := "SELECT [System.Id] FROM WorkItems" +
		" WHERE [System.TeamProject] = 'Payments'" +
		" AND [System.State] IN ('Active', 'Closed')" +
		" AND [System.WorkItemType] IN ('Task', 'Bug')" +
		" ORDER BY [System.ChangedDate] DESC"
	if query != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, query)
	}
}

func TestBuildWorkItemQueryOmitsEmptyClauses(t *testing.T) {
	query := BuildWorkItemQuery(Query{Project: "Payments"})

	if strings.Contains(query, "System.State") {
		t.Errorf("expected no state clause, got %s", query)
	}
	if strings.Contains(query, "System.WorkItemType") {
		t.Errorf("expected no type clause, got %s", query)
	}
	if strings.Contains(query, "ClosedDate] >=") || strings.Contains(query, "ClosedDate] <=") {
		t.Errorf("expected no date clause, got %s", query)
	}
}

func TestBuildWorkItemQueryTimeframe(t *testing.T) {
	from := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	query := BuildWorkItemQuery(Query{
		Project:   "Payments",
		DateField: "Microsoft.VSTS.Scheduling.TargetDate",
		From:      &from,
		To:        &to,
	})

	if !strings.Contains(query, "[Microsoft.VSTS.Scheduling.TargetDate] >= '2024-01-01'") {
		t.Errorf("expected lower bound on configured field, got %s", query)
	}
	if !strings.Contains(query, "[Microsoft.VSTS.Scheduling.TargetDate] <= '2024-03-31'") {
		t.Errorf("expected upper bound on configured field, got %s", query)
	}
}

func TestBuildWorkItemQueryTimeframeDefaultField(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query := BuildWorkItemQuery(Query{Project: "Payments", From: &from})

	if !strings.Contains(query, "[Microsoft.VSTS.Common.ClosedDate] >= '2024-01-01'") {
		t.Errorf("expected default closed-date field, got %s", query)
	}
	if strings.Contains(query, "<=") {
		t.Errorf("expected no upper bound, got %s", query)
	}
}

func TestBuildWorkItemQueryEscapesQuotes(t *testing.T) {
	query := BuildWorkItemQuery(Query{
		Project: "O'Brien Project",
		States:  []string{"Won't Fix"},
	})

	if !strings.Contains(query, "'O''Brien Project'") {
		t.Errorf("expected escaped project name, got %s", query)
	}
	if !strings.Contains(query, "'Won''t Fix'") {
		t.Errorf("expected escaped state name, got %s", query)
	}
}
