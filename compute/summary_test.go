package compute

import (
	"bytes"
	"log"
	"math"
	"testing"
	"time"

	"github.com/SaidinWoT/timespan"
	"github.com/gbl08ma/sqalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/underlx/tflstatus/dataobjects"
)

func openTestStore(t *testing.T) sqalx.Node {
	t.Helper()

	db, node, err := dataobjects.Open(dataobjects.SQLite, ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, dataobjects.EnsureSchema(node))
	return node
}

var day = time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC)

func observe(t *testing.T, node sqalx.Node, ts time.Time, mode, line string, descriptions ...string) {
	t.Helper()

	require.NoError(t, (&dataobjects.Line{Mode: mode, Name: line}).Insert(node))
	observation := &dataobjects.Observation{Time: ts, Mode: mode, Line: line}
	require.NoError(t, observation.Insert(node))
	for _, description := range descriptions {
		require.NoError(t, observation.AddStatus(node, &dataobjects.Status{Description: description}))
	}
}

// seed stores ten observations of the Central line, one every hour: six with
// good service, two part suspended (one also with severe delays), one minor
// delays and one planned closure. Victoria has two good service observations
func seed(t *testing.T, node sqalx.Node) {
	t.Helper()

	statuses := [][]string{
		{"Good Service"},
		{"Good Service"},
		{"Part Suspended", "Severe Delays"},
		{"Part Suspended"},
		{"Minor Delays"},
		{"Planned Closure"},
		{"Good Service"},
		{"Good Service"},
		{"Good Service"},
		{"Good Service"},
	}
	for i, s := range statuses {
		observe(t, node, day.Add(time.Duration(i)*time.Hour), "tube", "Central", s...)
	}
	observe(t, node, day, "tube", "Victoria", "Good Service")
	observe(t, node, day.Add(time.Hour), "tube", "Victoria", "Good Service")
	observe(t, node, day, "bus", "73", "Diverted")
}

func TestSummarizeMode(t *testing.T) {
	node := openTestStore(t)
	seed(t, node)

	var logs bytes.Buffer
	Initialize(node, log.New(&logs, "", 0))

	summaries, err := SummarizeMode(node, "tube", dataobjects.ObservationFilter{}, false)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	central := summaries[0]
	assert.Equal(t, "Central", central.Line)
	assert.Equal(t, 10, central.Total)
	assert.Equal(t, 3, central.Unplanned)
	assert.Equal(t, 1, central.Planned)
	assert.Nil(t, central.Breakdown)
	assert.InDelta(t, 30.0, central.UnplannedPercentage(), 1e-9)
	assert.InDelta(t, 10.0, central.PlannedPercentage(), 1e-9)

	victoria := summaries[1]
	assert.Equal(t, 2, victoria.Total)
	assert.Zero(t, victoria.Unplanned)
	assert.Zero(t, victoria.UnplannedPercentage())

	assert.Contains(t, logs.String(), "Summarised tube/Central in ")
	assert.Contains(t, logs.String(), "Summarised tube/Victoria in ")
}

func TestSummarizeLineWithBreakdown(t *testing.T) {
	node := openTestStore(t)
	seed(t, node)

	line := &dataobjects.Line{Mode: "tube", Name: "Central"}
	summary, err := SummarizeLine(node, line, dataobjects.ObservationFilter{}, true)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"Minor Delays":    1,
		"Part Closure":    0,
		"Part Suspended":  2,
		"Planned Closure": 1,
		"Severe Delays":   1,
		"Suspended":       0,
	}, summary.Breakdown)
	assert.InDelta(t, 20.0, summary.StatusPercentage("Part Suspended"), 1e-9)
}

func TestSummarizeLineWithinWindow(t *testing.T) {
	node := openTestStore(t)
	seed(t, node)

	window := dataobjects.ObservationFilter{
		Modes:    []string{"bus"},
		Statuses: []string{"Good Service"},
	}.During(timespan.New(day.Add(2*time.Hour), 3*time.Hour))

	line := &dataobjects.Line{Mode: "tube", Name: "Central"}
	summary, err := SummarizeLine(node, line, window, false)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Unplanned)
	assert.Zero(t, summary.Planned)
}

func TestSummaryOfLineWithoutObservations(t *testing.T) {
	node := openTestStore(t)
	require.NoError(t, (&dataobjects.Line{Mode: "tube", Name: "Waterloo & City"}).Insert(node))

	summaries, err := SummarizeMode(node, "tube", dataobjects.ObservationFilter{}, true)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Zero(t, summaries[0].Total)
	assert.True(t, math.IsNaN(summaries[0].UnplannedPercentage()))
	assert.True(t, math.IsNaN(summaries[0].StatusPercentage("Suspended")))
}

func TestSummarizeModes(t *testing.T) {
	node := openTestStore(t)
	seed(t, node)
	Initialize(node, nil)

	summaries, err := SummarizeModes(nil, dataobjects.ObservationFilter{}, false, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "bus", summaries[0].Mode)
	assert.Equal(t, "73", summaries[0].Line)
	assert.Equal(t, "Central", summaries[1].Line)
	assert.Equal(t, "Victoria", summaries[2].Line)

	summaries, err = SummarizeModes([]string{"bus"}, dataobjects.ObservationFilter{}, false, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Total)
	assert.Zero(t, summaries[0].Unplanned)
}

func TestPercentage(t *testing.T) {
	assert.True(t, math.IsNaN(Percentage(0, 0)))
	assert.True(t, math.IsNaN(Percentage(3, 0)))
	assert.Equal(t, 50.0, Percentage(1, 2))
	assert.Equal(t, 0.0, Percentage(0, 7))
}

func TestBreakdownStatuses(t *testing.T) {
	assert.Equal(t, []string{
		"Minor Delays", "Part Closure", "Part Suspended", "Planned Closure", "Severe Delays", "Suspended",
	}, BreakdownStatuses())
}

func TestSummaryCountsObservationsWithoutStatuses(t *testing.T) {
	node := openTestStore(t)
	observe(t, node, day, "tube", "Jubilee")
	observe(t, node, day.Add(time.Hour), "tube", "Jubilee", "Suspended")

	summary, err := SummarizeLine(node, &dataobjects.Line{Mode: "tube", Name: "Jubilee"}, dataobjects.ObservationFilter{}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Unplanned)
	assert.InDelta(t, 50.0, summary.UnplannedPercentage(), 1e-9)
}
