// Package missingness computes descriptive statistics about absent values in
// a dataset table: per-column counts, per-response-class breakdowns and
// exact-match co-missingness patterns.
package missingness

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"creditstudy/internal/dataset"
)

// ColumnStat summarizes missingness for one column
type ColumnStat struct {
	Column         string
	MissingCount   int
	MissingPercent float64
}

// ClassStat summarizes missingness for one column restricted to records of
// one response class. Percent is relative to the class size, not the table.
type ClassStat struct {
	Column         string
	Class          string
	MissingCount   int
	MissingPercent float64
}

// Pattern is one exact co-missingness group: the number of records whose set
// of missing columns equals Columns exactly.
type Pattern struct {
	Columns []string
	Count   int
}

// Key renders the pattern's column set as a stable string
func (p Pattern) Key() string {
	return strings.Join(p.Columns, "+")
}

// Profile is a read-only missingness summary over one table
type Profile struct {
	TotalRecords   int
	TotalCells     int
	MissingCells   int
	OverallPercent float64
	Columns        []ColumnStat // schema order
	ByClass        []ClassStat  // class-major, then schema order
	Patterns       []Pattern    // descending count, nonzero only
}

// Profiler computes missingness profiles
type Profiler struct {
	logger *slog.Logger
}

// NewProfiler creates a profiler
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{logger: logger}
}

// Profile computes the full missingness summary for a table. The response
// column drives the per-class breakdown; predictors only are profiled
// per-column (the response itself is always observed in this study, and a
// missing response is rejected upstream by the encoder).
func (p *Profiler) Profile(ctx context.Context, table *dataset.Table, responseColumn string) (*Profile, error) {
	respIdx, err := table.ColumnIndex(responseColumn)
	if err != nil {
		return nil, err
	}

	columns := table.Columns()
	n := table.NumRows()

	profile := &Profile{
		TotalRecords: n,
		TotalCells:   n * table.NumColumns(),
		MissingCells: table.MissingCells(),
	}
	if profile.TotalCells > 0 {
		profile.OverallPercent = 100 * float64(profile.MissingCells) / float64(profile.TotalCells)
	}

	// per column
	for j, col := range columns {
		stat := ColumnStat{Column: col}
		for i := 0; i < n; i++ {
			if table.IsMissing(i, j) {
				stat.MissingCount++
			}
		}
		if n > 0 {
			stat.MissingPercent = 100 * float64(stat.MissingCount) / float64(n)
		}
		profile.Columns = append(profile.Columns, stat)
	}

	// per (column, class)
	classCounts, err := table.ClassCounts(responseColumn)
	if err != nil {
		return nil, err
	}
	classes := make([]string, 0, len(classCounts))
	for class := range classCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		for j, col := range columns {
			if j == respIdx {
				continue
			}
			stat := ClassStat{Column: col, Class: class}
			for i := 0; i < n; i++ {
				if table.Cell(i, respIdx) != class {
					continue
				}
				if table.IsMissing(i, j) {
					stat.MissingCount++
				}
			}
			if classCounts[class] > 0 {
				stat.MissingPercent = 100 * float64(stat.MissingCount) / float64(classCounts[class])
			}
			profile.ByClass = append(profile.ByClass, stat)
		}
	}

	profile.Patterns = p.patterns(table)

	p.logger.InfoContext(ctx, "computed missingness profile",
		slog.Int("records", profile.TotalRecords),
		slog.Int("missing_cells", profile.MissingCells),
		slog.Float64("overall_percent", profile.OverallPercent),
		slog.Int("patterns", len(profile.Patterns)))

	return profile, nil
}

// patterns groups records by the exact set of columns they are missing in
// (UpSet-style exact-match semantics). Fully observed records contribute no
// pattern. Patterns are ordered by descending count, then by key.
func (p *Profiler) patterns(table *dataset.Table) []Pattern {
	columns := table.Columns()
	byKey := make(map[string][]string)
	counts := make(map[string]int)

	for i := 0; i < table.NumRows(); i++ {
		var missing []string
		for j := range columns {
			if table.IsMissing(i, j) {
				missing = append(missing, columns[j])
			}
		}
		if len(missing) == 0 {
			continue
		}
		key := strings.Join(missing, "+")
		byKey[key] = missing
		counts[key]++
	}

	patterns := make([]Pattern, 0, len(counts))
	for key, count := range counts {
		patterns = append(patterns, Pattern{Columns: byKey[key], Count: count})
	}
	sort.Slice(patterns, func(a, b int) bool {
		if patterns[a].Count != patterns[b].Count {
			return patterns[a].Count > patterns[b].Count
		}
		return patterns[a].Key() < patterns[b].Key()
	})
	return patterns
}
