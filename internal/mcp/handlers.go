package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adokpi/internal/azdo"
	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
)

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringListArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var values []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// analyzeProject runs (or reuses) a full analysis for q.Project. Custom
// state, type or timeframe filters bypass the cache because they change the
// item population.
func (s *Server) analyzeProject(ctx context.Context, q azdo.Query) (scoring.Result, error) {
	filtered := len(q.States) > 0 || len(q.Types) > 0 || q.From != nil || q.To != nil
	if !filtered {
		if cached, ok := s.cachedAnalysis(q.Project); ok {
			return cached, nil
		}
	}

	if len(q.States) == 0 {
		q.States = s.analysis.Query.StatesToFetch
	}
	if len(q.Types) == 0 {
		q.Types = s.analysis.Query.WorkItemTypes
	}
	q.DateField = s.analysis.Query.DateField

	params, err := s.analysis.Params()
	if err != nil {
		return scoring.Result{}, err
	}
	analyzer, err := scoring.NewAnalyzer(params)
	if err != nil {
		return scoring.Result{}, err
	}

	inputs, fetchDiags, err := s.fetcher.FetchProject(ctx, q)
	if err != nil {
		return scoring.Result{}, err
	}

	result := analyzer.Analyze(inputs)
	result.Diagnostics = append(fetchDiags, result.Diagnostics...)
	log.Info().Str("project", q.Project).Int("items", len(result.Items)).Msg("Analysis complete")

	if !filtered {
		s.storeAnalysis(q.Project, result)
	}
	return result, nil
}

func (s *Server) cachedAnalysis(project string) (scoring.Result, bool) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	entry, ok := s.cache[project]
	if !ok || time.Now().After(entry.expiration) {
		delete(s.cache, project)
		return scoring.Result{}, false
	}
	log.Debug().Str("project", project).Msg("Analysis cache hit")
	return entry.result, true
}

func (s *Server) storeAnalysis(project string, result scoring.Result) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.cache[project] = &cachedResult{
		result:     result,
		expiration: time.Now().Add(s.cacheTTL),
	}
}

func dateArg(args map[string]interface{}, key string) (*time.Time, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return &t, nil
}

func (s *Server) handleListProjects(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return azdo.FilterProjects(projects, stringArg(args, "filter")), nil
}

func (s *Server) handleAnalyze(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	project := stringArg(args, "project")
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}
	from, err := dateArg(args, "from")
	if err != nil {
		return nil, err
	}
	to, err := dateArg(args, "to")
	if err != nil {
		return nil, err
	}

	result, err := s.analyzeProject(ctx, azdo.Query{
		Project: project,
		States:  stringListArg(args, "states"),
		Types:   stringListArg(args, "types"),
		From:    from,
		To:      to,
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"summary":     result.Summary,
		"items":       result.Items,
		"bottlenecks": result.Bottlenecks,
		"diagnostics": result.Diagnostics,
	}, nil
}

func (s *Server) handleAssigneeScores(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	project := stringArg(args, "project")
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}

	result, err := s.analyzeProject(ctx, azdo.Query{Project: project})
	if err != nil {
		return nil, err
	}

	assignee := stringArg(args, "assignee")
	if assignee == "" {
		return result.Assignees, nil
	}

	for _, a := range result.Assignees {
		if strings.EqualFold(a.Assignee, assignee) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no scored items for assignee %q in %s", assignee, project)
}
