package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	coachdomain "mindbody-backend/internal/coach/domain"
	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/recordstore"
)

const weekWindow = 7 * 24 * time.Hour

var (
	durationHints  = []string{"duration", "durata"}
	stressHints    = []string{"stress"}
	rowDateLayouts = []string{recordstore.TimestampLayout, time.RFC3339, "2006-01-02"}
)

// findColumn returns the first column whose name contains one of hints.
func findColumn(columns []string, hints []string) string {
	for _, hint := range hints {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(c), hint) {
				return c
			}
		}
	}
	return ""
}

func rowTime(r recordstore.Record) (time.Time, bool) {
	for _, field := range []string{journaldomain.DateField, recordstore.ImportTimestampField} {
		raw := strings.TrimSpace(r[field])
		if raw == "" {
			continue
		}
		for _, layout := range rowDateLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func inWindow(rows []recordstore.Record, from, to time.Time) []recordstore.Record {
	var out []recordstore.Record
	for _, r := range rows {
		t, ok := rowTime(r)
		if !ok || t.Before(from) || t.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// summarizeWeek aggregates the last seven days of workouts and mood check-ins.
func (u *coachUsecase) summarizeWeek(ctx context.Context, user string) (coachdomain.WeeklySummary, error) {
	now := u.now()
	from := now.Add(-weekWindow)
	summary := coachdomain.WeeklySummary{From: from}

	workouts, err := u.records.ReadTable(ctx, user, journaldomain.DatasetWorkouts)
	if err != nil {
		return summary, err
	}
	mood, err := u.records.ReadTable(ctx, user, journaldomain.DatasetMood)
	if err != nil {
		return summary, err
	}

	weekWorkouts := inWindow(workouts.Rows, from, now)
	weekMood := inWindow(mood.Rows, from, now)
	if len(weekWorkouts) == 0 && len(weekMood) == 0 {
		return summary, coachdomain.ErrNotEnoughData
	}

	if len(weekWorkouts) > 0 {
		col := findColumn(workouts.Columns, durationHints)
		if col == "" {
			return summary, &coachdomain.ColumnClarificationError{
				Dataset: journaldomain.DatasetWorkouts,
				Wanted:  "duration",
				Columns: workouts.Columns,
			}
		}
		summary.DurationColumn = col
		summary.Workouts = len(weekWorkouts)
		for _, r := range weekWorkouts {
			if d, ok := parseNumber(r[col]); ok {
				summary.TotalDuration += d
			}
		}
	}

	if len(weekMood) > 0 {
		col := findColumn(mood.Columns, stressHints)
		if col == "" {
			return summary, &coachdomain.ColumnClarificationError{
				Dataset: journaldomain.DatasetMood,
				Wanted:  "stress",
				Columns: mood.Columns,
			}
		}
		total, n := 0.0, 0
		for _, r := range weekMood {
			if v, ok := parseNumber(r[col]); ok {
				total += v
				n++
			}
		}
		if n > 0 {
			avg := total / float64(n)
			summary.AverageStress = &avg
			summary.StressColumn = col
		}
	}
	return summary, nil
}

func weeklyText(s coachdomain.WeeklySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "In the last 7 days you trained %d times for a total of %.0f minutes.", s.Workouts, s.TotalDuration)
	if s.AverageStress != nil {
		fmt.Fprintf(&b, " Your average stress was %.1f out of 10.", *s.AverageStress)
	}
	return b.String()
}
