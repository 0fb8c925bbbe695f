package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"adokpi/internal/azdo"
	"adokpi/internal/config"
	"adokpi/internal/scoring"
)

type fakeAzdoClient struct {
	projects []azdo.Project
}

func (f *fakeAzdoClient) ListProjects(ctx context.Context) ([]azdo.Project, error) {
	return f.projects, nil
}

func (f *fakeAzdoClient) QueryWorkItemIDs(ctx context.Context, project, wiql string) ([]int, error) {
	return nil, nil
}

func (f *fakeAzdoClient) GetWorkItemBatch(ctx context.Context, ids []int) ([]azdo.WorkItemDTO, error) {
	return nil, nil
}

func (f *fakeAzdoClient) GetWorkItemUpdates(ctx context.Context, id int) ([]azdo.UpdateDTO, error) {
	return nil, nil
}

type fakeFetcher struct {
	inputs    []scoring.ItemInput
	calls     int
	lastQuery azdo.Query
}

func (f *fakeFetcher) FetchProject(ctx context.Context, q azdo.Query) ([]scoring.ItemInput, []scoring.Diagnostic, error) {
	f.calls++
	f.lastQuery = q
	return f.inputs, nil, nil
}

func testAnalysis() config.Analysis {
	analysis := config.DefaultAnalysis()
	analysis.BusinessHours.Timezone = "UTC"
	return analysis
}

func closedItemInput(id int, assignee string) scoring.ItemInput {
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	return scoring.ItemInput{
		Item: scoring.WorkItem{
			ID:               id,
			Type:             "Task",
			Title:            "Test item",
			AssignedTo:       assignee,
			State:            "Closed",
			OriginalEstimate: 8,
		},
		Transitions: []scoring.StateTransition{
			{Revision: 1, State: "New", Timestamp: day.Add(9 * time.Hour)},
			{Revision: 2, State: "Active", Timestamp: day.Add(10 * time.Hour)},
			{Revision: 3, State: "Closed", Timestamp: day.Add(16 * time.Hour)},
		},
	}
}

func newTestServer(fetcher *fakeFetcher) *Server {
	client := &fakeAzdoClient{projects: []azdo.Project{{ID: "p1", Name: "Payments"}}}
	return NewServer(client, fetcher, testAnalysis())
}

func callParams(t *testing.T, name string, args map[string]interface{}) json.RawMessage {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("marshalling params: %v", err)
	}
	return params
}

func resultText(t *testing.T, result interface{}) string {
	t.Helper()
	content := result.(map[string]interface{})["content"].([]interface{})
	return content[0].(map[string]interface{})["text"].(string)
}

func TestCallToolListProjects(t *testing.T) {
	s := newTestServer(&fakeFetcher{})

	result, errRes := s.callTool(context.Background(), callParams(t, "list_projects", nil))
	if errRes != nil {
		t.Fatalf("unexpected error: %v", errRes)
	}
	if text := resultText(t, result); !strings.Contains(text, "Payments") {
		t.Errorf("expected project list in result, got %s", text)
	}
}

func TestCallToolListProjectsFilter(t *testing.T) {
	s := newTestServer(&fakeFetcher{})
	s.client = &fakeAzdoClient{projects: []azdo.Project{
		{ID: "p1", Name: "Payments"},
		{ID: "p2", Name: "Warehouse"},
	}}

	result, errRes := s.callTool(context.Background(),
		callParams(t, "list_projects", map[string]interface{}{"filter": "ware"}))
	if errRes != nil {
		t.Fatalf("unexpected error: %v", errRes)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Warehouse") {
		t.Errorf("expected Warehouse in filtered result, got %s", text)
	}
	if strings.Contains(text, "Payments") {
		t.Errorf("expected Payments filtered out, got %s", text)
	}
}

func TestCallToolAnalyzeWorkItems(t *testing.T) {
	fetcher := &fakeFetcher{inputs: []scoring.ItemInput{closedItemInput(1, "Dana Ortiz")}}
	s := newTestServer(fetcher)

	result, errRes := s.callTool(context.Background(),
		callParams(t, "analyze_work_items", map[string]interface{}{"project": "Payments"}))
	if errRes != nil {
		t.Fatalf("unexpected error: %v", errRes)
	}

	text := resultText(t, result)
	var payload struct {
		Summary scoring.Summary     `json:"summary"`
		Items   []scoring.ItemScore `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("unmarshalling result: %v", err)
	}
	if payload.Summary.TotalItems != 1 {
		t.Errorf("expected 1 item in summary, got %d", payload.Summary.TotalItems)
	}
	if len(payload.Items) != 1 || !payload.Items[0].Completed {
		t.Errorf("expected one completed item, got %+v", payload.Items)
	}
}

func TestCallToolAnalyzeRequiresProject(t *testing.T) {
	s := newTestServer(&fakeFetcher{})

	_, errRes := s.callTool(context.Background(), callParams(t, "analyze_work_items", nil))
	if errRes == nil {
		t.Fatal("expected missing-project error")
	}
}

func TestAnalyzeCachesUnfilteredRuns(t *testing.T) {
	fetcher := &fakeFetcher{inputs: []scoring.ItemInput{closedItemInput(1, "Dana Ortiz")}}
	s := newTestServer(fetcher)
	ctx := context.Background()

	args := map[string]interface{}{"project": "Payments"}
	for i := 0; i < 3; i++ {
		if _, errRes := s.callTool(ctx, callParams(t, "analyze_work_items", args)); errRes != nil {
			t.Fatalf("call %d failed: %v", i, errRes)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 fetch for repeated unfiltered calls, got %d", fetcher.calls)
	}

	// A state filter changes the population and must bypass the cache.
	filtered := map[string]interface{}{"project": "Payments", "states": []interface{}{"Closed"}}
	if _, errRes := s.callTool(ctx, callParams(t, "analyze_work_items", filtered)); errRes != nil {
		t.Fatalf("filtered call failed: %v", errRes)
	}
	if fetcher.calls != 2 {
		t.Errorf("expected filtered call to fetch again, got %d calls", fetcher.calls)
	}
}

func TestAnalyzeForwardsTimeframe(t *testing.T) {
	fetcher := &fakeFetcher{inputs: []scoring.ItemInput{closedItemInput(1, "Dana Ortiz")}}
	s := newTestServer(fetcher)
	ctx := context.Background()

	// Warm the cache, then a timeframe call must fetch again with bounds.
	plain := map[string]interface{}{"project": "Payments"}
	if _, errRes := s.callTool(ctx, callParams(t, "analyze_work_items", plain)); errRes != nil {
		t.Fatalf("unfiltered call failed: %v", errRes)
	}

	bounded := map[string]interface{}{"project": "Payments", "from": "2024-01-01", "to": "2024-03-31"}
	if _, errRes := s.callTool(ctx, callParams(t, "analyze_work_items", bounded)); errRes != nil {
		t.Fatalf("timeframe call failed: %v", errRes)
	}
	if fetcher.calls != 2 {
		t.Errorf("expected timeframe call to bypass the cache, got %d fetches", fetcher.calls)
	}

	q := fetcher.lastQuery
	if q.From == nil || !q.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected from bound forwarded, got %v", q.From)
	}
	if q.To == nil || !q.To.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected to bound forwarded, got %v", q.To)
	}
	if q.DateField != "Microsoft.VSTS.Common.ClosedDate" {
		t.Errorf("expected configured date field on the query, got %q", q.DateField)
	}
}

func TestAnalyzeRejectsBadDate(t *testing.T) {
	s := newTestServer(&fakeFetcher{})

	args := map[string]interface{}{"project": "Payments", "from": "01/02/2024"}
	_, errRes := s.callTool(context.Background(), callParams(t, "analyze_work_items", args))
	if errRes == nil {
		t.Fatal("expected date format error")
	}
	msg := errRes.(map[string]interface{})["message"].(string)
	if !strings.Contains(msg, "YYYY-MM-DD") {
		t.Errorf("expected format hint in error, got %q", msg)
	}
}

func TestAssigneeScoresFiltersCaseInsensitive(t *testing.T) {
	fetcher := &fakeFetcher{inputs: []scoring.ItemInput{
		closedItemInput(1, "Dana Ortiz"),
		closedItemInput(2, "Sam Lee"),
	}}
	s := newTestServer(fetcher)

	data, err := s.handleAssigneeScores(context.Background(),
		map[string]interface{}{"project": "Payments", "assignee": "dana ortiz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aggregate, ok := data.(scoring.AssigneeAggregate)
	if !ok {
		t.Fatalf("expected single aggregate, got %T", data)
	}
	if aggregate.Assignee != "Dana Ortiz" {
		t.Errorf("expected Dana Ortiz, got %q", aggregate.Assignee)
	}

	_, err = s.handleAssigneeScores(context.Background(),
		map[string]interface{}{"project": "Payments", "assignee": "Nobody"})
	if err == nil {
		t.Error("expected error for unknown assignee")
	}
}

func TestCallToolUnknownTool(t *testing.T) {
	s := newTestServer(&fakeFetcher{})

	_, errRes := s.callTool(context.Background(), callParams(t, "does_not_exist", nil))
	if errRes == nil {
		t.Fatal("expected tool-not-found error")
	}
	msg := errRes.(map[string]interface{})["message"].(string)
	if msg != "Tool not found" {
		t.Errorf("expected tool-not-found message, got %q", msg)
	}
}
