package compute

import (
	"math"
	"sort"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/hako/durafmt"
	"github.com/thoas/go-funk"
	"github.com/underlx/tflstatus/dataobjects"
)

// UnplannedDisruptionStatuses are the statuses that indicate an unplanned disruption
var UnplannedDisruptionStatuses = []string{"Suspended", "Part Suspended", "Minor Delays", "Severe Delays"}

// PlannedDisruptionStatuses are the statuses that indicate planned works
var PlannedDisruptionStatuses = []string{"Part Closure", "Planned Closure"}

// BreakdownStatuses returns the statuses counted individually in a breakdown
func BreakdownStatuses() []string {
	statuses := funk.UniqString(append(append([]string{}, UnplannedDisruptionStatuses...), PlannedDisruptionStatuses...))
	sort.Strings(statuses)
	return statuses
}

// LineSummary holds the disruption statistics of a line
type LineSummary struct {
	Mode      string
	Line      string
	Total     int
	Unplanned int
	Planned   int
	// Breakdown maps each of BreakdownStatuses to its count. nil unless requested
	Breakdown map[string]int
}

// UnplannedPercentage returns the percentage of observations with an unplanned disruption
func (s LineSummary) UnplannedPercentage() float64 {
	return Percentage(s.Unplanned, s.Total)
}

// PlannedPercentage returns the percentage of observations with planned works
func (s LineSummary) PlannedPercentage() float64 {
	return Percentage(s.Planned, s.Total)
}

// StatusPercentage returns the percentage of observations reporting status
func (s LineSummary) StatusPercentage(status string) float64 {
	return Percentage(s.Breakdown[status], s.Total)
}

// Percentage returns count as a percentage of total, or NaN when total is zero
func Percentage(count, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return 100 * float64(count) / float64(total)
}

// SummarizeMode summarizes each line of mode within window. The mode, line
// and status sets of window are ignored
func SummarizeMode(node sqalx.Node, mode string, window dataobjects.ObservationFilter, breakdown bool) ([]LineSummary, error) {
	tx, err := node.Beginx()
	if err != nil {
		return []LineSummary{}, err
	}
	defer tx.Commit() // read-only tx

	lines, err := dataobjects.GetLinesForMode(tx, mode)
	if err != nil {
		return []LineSummary{}, err
	}

	summaries := make([]LineSummary, 0, len(lines))
	for _, line := range lines {
		summary, err := SummarizeLine(tx, line, window, breakdown)
		if err != nil {
			return []LineSummary{}, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SummarizeLine counts the observations of line within window, in total and
// for each group of disruption statuses
func SummarizeLine(node sqalx.Node, line *dataobjects.Line, window dataobjects.ObservationFilter, breakdown bool) (LineSummary, error) {
	start := time.Now()
	tx, err := node.Beginx()
	if err != nil {
		return LineSummary{}, err
	}
	defer tx.Commit() // read-only tx

	summary := LineSummary{
		Mode: line.Mode,
		Line: line.Name,
	}

	count := func(statuses []string) (int, error) {
		filter := window
		filter.Modes = []string{line.Mode}
		filter.Lines = []string{line.Name}
		filter.Statuses = statuses
		return dataobjects.CountObservations(tx, filter)
	}

	if summary.Total, err = count(nil); err != nil {
		return LineSummary{}, err
	}
	if summary.Unplanned, err = count(UnplannedDisruptionStatuses); err != nil {
		return LineSummary{}, err
	}
	if summary.Planned, err = count(PlannedDisruptionStatuses); err != nil {
		return LineSummary{}, err
	}

	if breakdown {
		summary.Breakdown = make(map[string]int)
		for _, status := range BreakdownStatuses() {
			if summary.Breakdown[status], err = count([]string{status}); err != nil {
				return LineSummary{}, err
			}
		}
	}

	mainLog.Printf("Summarised %s/%s in %s", line.Mode, line.Name, durafmt.Parse(time.Since(start)))
	return summary, nil
}
