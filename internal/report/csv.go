package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
)

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 1, 64)
}

// WriteItems writes the per-item detail report.
func WriteItems(w io.Writer, items []scoring.ItemScore) error {
	cw := csv.NewWriter(w)

	header := []string{
		"id", "title", "project", "assigned_to", "type", "state",
		"estimated_hours", "estimate_source", "active_hours", "paused_hours",
		"fair_efficiency", "traditional_efficiency",
		"completed", "delivery_score", "days_ahead_behind",
		"completion_bonus", "timing_bonus",
		"reopened", "reopen_count", "active_after_reopen_hours",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		row := []string{
			strconv.Itoa(item.ID),
			item.Title,
			item.ProjectName,
			item.AssignedTo,
			item.Type,
			item.State,
			formatHours(item.EstimatedHours),
			string(item.EstimateSource),
			formatHours(item.ActiveHours),
			formatHours(item.PausedHours),
			formatScore(item.FairEfficiency),
			formatScore(item.TraditionalEfficiency),
			strconv.FormatBool(item.Completed),
			formatScore(item.DeliveryScore),
			strconv.Itoa(item.DaysAheadBehind),
			formatHours(item.CompletionBonus),
			formatHours(item.TimingBonus),
			strconv.FormatBool(item.WasReopened),
			strconv.Itoa(item.ReopenCount),
			formatHours(item.ActiveAfterReopenHours),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAssignees writes the per-assignee summary report.
func WriteAssignees(w io.Writer, aggregates []scoring.AssigneeAggregate) error {
	cw := csv.NewWriter(w)

	header := []string{
		"assignee", "overall_score",
		"total_items", "completed_items", "items_with_activity",
		"completion_rate", "on_time_rate",
		"avg_fair_efficiency", "avg_delivery_score", "avg_days_ahead_behind",
		"total_active_hours", "total_estimated_hours",
		"reopened_items", "reopened_rate",
		"delivered_early", "delivered_on_time",
		"late_1_3_days", "late_4_7_days", "late_8_14_days", "late_15_plus_days",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, a := range aggregates {
		row := []string{
			a.Assignee,
			formatScore(a.OverallScore),
			strconv.Itoa(a.TotalItems),
			strconv.Itoa(a.CompletedItems),
			strconv.Itoa(a.ItemsWithActivity),
			formatScore(a.CompletionRate),
			formatScore(a.OnTimeRate),
			formatScore(a.AvgFairEfficiency),
			formatScore(a.AvgDeliveryScore),
			formatScore(a.AvgDaysAheadBehind),
			formatHours(a.TotalActiveHours),
			formatHours(a.TotalEstimatedHours),
			strconv.Itoa(a.ReopenedItems),
			formatScore(a.ReopenedRate),
			strconv.Itoa(a.Buckets.Early),
			strconv.Itoa(a.Buckets.OnTime),
			strconv.Itoa(a.Buckets.Late1to3),
			strconv.Itoa(a.Buckets.Late4to7),
			strconv.Itoa(a.Buckets.Late8to14),
			strconv.Itoa(a.Buckets.Late15Plus),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteBottlenecks writes the ranked dwell report.
func WriteBottlenecks(w io.Writer, entries []scoring.BottleneckEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"rank", "state", "avg_hours", "occurrences"}); err != nil {
		return err
	}
	for i, e := range entries {
		row := []string{
			strconv.Itoa(i + 1),
			e.State,
			formatHours(e.AverageHours),
			strconv.Itoa(e.Occurrences),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Save writes the three CSV reports into dir using a shared timestamp prefix
// and returns the created paths.
func Save(dir string, result scoring.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"work_items", func(w io.Writer) error { return WriteItems(w, result.Items) }},
		{"assignee_scores", func(w io.Writer) error { return WriteAssignees(w, result.Assignees) }},
		{"bottlenecks", func(w io.Writer) error { return WriteBottlenecks(w, result.Bottlenecks) }},
	}

	var paths []string
	for _, rw := range writers {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", rw.name, stamp))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating %s: %w", path, err)
		}
		err = rw.write(f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
		log.Info().Str("path", path).Msg("Report written")
	}
	return paths, nil
}
