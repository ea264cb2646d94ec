package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/underlx/tflstatus/compute"
	"github.com/underlx/tflstatus/dataobjects"
)

func writeSnapshot(t *testing.T, root, stamp, document string) {
	t.Helper()

	ts, err := time.Parse("2006-01-02_15-04", stamp)
	require.NoError(t, err)
	dir := filepath.Join(root, "lines", ts.Format("2006"), ts.Format("01"), ts.Format("02"))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	name := stamp + "-00"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(document)), Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".tar.gz"), buf.Bytes(), 0o644))
}

func document(central, victoria string) string {
	return `[
  {"modeName": "tube", "name": "Central", "lineStatuses": [{"statusSeverity": 5, "statusSeverityDescription": "` + central + `"}]},
  {"modeName": "tube", "name": "Victoria", "lineStatuses": [{"statusSeverity": 10, "statusSeverityDescription": "` + victoria + `"}]}
]`
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

func TestIngestThenQuery(t *testing.T) {
	dir := isolate(t)
	root := filepath.Join(dir, "data")
	writeSnapshot(t, root, "2023-01-05_08-00", document("Part Suspended", "Good Service"))
	writeSnapshot(t, root, "2023-01-05_08-05", document("Good Service", "Good Service"))
	writeSnapshot(t, root, "2023-01-05_08-10", document("Planned Closure", "Minor Delays"))
	writeSnapshot(t, root, "2023-01-05_08-15", "")
	dsn := filepath.Join(dir, "tfl.db")

	out, err := execute(t, "ingest", "--root", root, "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "6 observations and 6 statuses written, 0 skipped")

	out, err = execute(t, "ingest", "--root", root, "--dsn", dsn, "--commit", "observation")
	require.NoError(t, err)
	assert.Contains(t, out, "0 observations and 0 statuses written, 6 skipped")

	out, err = execute(t, "count", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)

	out, err = execute(t, "count", "--dsn", dsn, "--line", "Central", "--status", "Part Suspended,Planned Closure")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, "count", "--dsn", dsn, "--from", "2023-01-05T08:05", "--for", "5m")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, "observations", "--dsn", dsn, "--mode", "tube", "--status", "Minor Delays")
	require.NoError(t, err)
	assert.Contains(t, out, "2023-01-05 08:10")
	assert.Contains(t, out, "Victoria")
	assert.NotContains(t, out, "Central")
	assert.Contains(t, strings.ToUpper(out), "TOTAL: 1 OBSERVATIONS")

	out, err = execute(t, "summary", "--dsn", dsn, "--breakdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Disruptions of tube lines")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, strings.ToUpper(out), "TOTAL: 2 LINES")
}

func TestCountRejectsInvalidFilter(t *testing.T) {
	dir := isolate(t)
	dsn := filepath.Join(dir, "tfl.db")

	_, err := execute(t, "count", "--dsn", dsn, "--from", "2023-01-05", "--to", "2023-01-04")
	assert.ErrorIs(t, err, dataobjects.ErrInvalidFilter)

	_, err = execute(t, "count", "--dsn", dsn, "--from", "yesterday")
	assert.ErrorContains(t, err, "invalid time")
}

func TestIngestFailsOnMalformedHierarchy(t *testing.T) {
	dir := isolate(t)
	root := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lines", "twenty"), 0o755))

	_, err := execute(t, "ingest", "--root", root, "--dsn", filepath.Join(dir, "tfl.db"))
	assert.ErrorContains(t, err, "malformed snapshot hierarchy")
}

func TestConfigCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "--dsn", "elsewhere.db")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: sqlite")
	assert.Contains(t, out, "dsn: elsewhere.db")
	assert.Contains(t, out, "category: lines")
	assert.NotContains(t, out, "secrets")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tflstatus (commit: "))
}

func newWindowCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestFilterFromFlags(t *testing.T) {
	filter, err := filterFromFlags(newWindowCommand(t))
	require.NoError(t, err)
	assert.Equal(t, dataobjects.ObservationFilter{}, filter)

	filter, err = filterFromFlags(newWindowCommand(t, "--from", "2023-01-05", "--for", "24h", "--mode", "tube,bus", "--status", "Suspended"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), filter.From)
	assert.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), filter.To)
	assert.Equal(t, []string{"tube", "bus"}, filter.Modes)
	assert.Nil(t, filter.Lines)
	assert.Equal(t, []string{"Suspended"}, filter.Statuses)

	_, err = filterFromFlags(newWindowCommand(t, "--for", "1h"))
	assert.Error(t, err)

	_, err = filterFromFlags(newWindowCommand(t, "--from", "2023-01-05", "--to", "2023-01-06", "--for", "1h"))
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	expected := time.Date(2023, 1, 5, 8, 30, 0, 0, time.UTC)
	for _, s := range []string{"2023-01-05T08:30:00Z", "2023-01-05T08:30", "2023-01-05 08:30"} {
		parsed, err := parseTime(s)
		require.NoError(t, err)
		assert.True(t, expected.Equal(parsed), s)
	}

	_, err := parseTime("05/01/2023")
	assert.Error(t, err)
}

func TestRenderSummaries(t *testing.T) {
	var out bytes.Buffer
	renderSummaries(&out, []compute.LineSummary{
		{Mode: "tube", Line: "Central", Total: 4, Unplanned: 1, Planned: 0},
		{Mode: "tube", Line: "Waterloo & City"},
	}, false)

	assert.Contains(t, out.String(), "25.0%")
	assert.Contains(t, out.String(), "n/a")
	assert.Contains(t, out.String(), "Waterloo & City")
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "n/a", formatPercentage(math.NaN()))
	assert.Equal(t, "12.5%", formatPercentage(12.5))
}
