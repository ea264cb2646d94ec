package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/underlx/tflstatus/dataobjects"
	"github.com/underlx/tflstatus/snapshot"
)

type fakeSource struct {
	snapshots []snapshot.Snapshot
	pos       int
	err       error
	current   snapshot.Snapshot
}

func (s *fakeSource) Next() bool {
	if s.pos >= len(s.snapshots) {
		return false
	}
	s.current = s.snapshots[s.pos]
	s.pos++
	return true
}

func (s *fakeSource) Snapshot() snapshot.Snapshot {
	return s.current
}

func (s *fakeSource) Err() error {
	return s.err
}

func TestRunTalliesEverySnapshot(t *testing.T) {
	node := openTestStore(t)
	writer := NewWriter(node, NewLineCache(), CommitPerSnapshot, nil)

	source := &fakeSource{snapshots: []snapshot.Snapshot{
		sampleSnapshot(morning),
		{Time: morning.Add(5 * time.Minute)},
		{Time: morning.Add(10 * time.Minute), Err: &snapshot.ArchiveDecodeError{Path: "broken", Err: errors.New("unexpected EOF")}},
		sampleSnapshot(morning),
		sampleSnapshot(morning.Add(15 * time.Minute)),
	}}

	report, err := Run(source, writer)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Snapshots)
	assert.Equal(t, 1, report.EmptySnapshots)
	assert.Equal(t, 1, report.DecodeFailures)
	assert.Equal(t, 6, report.Observations)
	assert.Equal(t, 8, report.Statuses)
	assert.Len(t, report.Conflicts, 3)
	assert.Equal(t, 4, report.Skipped())
	assert.Contains(t, report.String(), "6 observations and 8 statuses written, 4 skipped")

	count, err := dataobjects.CountObservations(node, dataobjects.ObservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, report.Observations, count)
}

func TestRunStopsOnSourceError(t *testing.T) {
	node := openTestStore(t)
	writer := NewWriter(node, NewLineCache(), CommitPerObservation, nil)

	source := &fakeSource{
		snapshots: []snapshot.Snapshot{sampleSnapshot(morning)},
		err:       snapshot.ErrMalformedHierarchy,
	}

	report, err := Run(source, writer)
	assert.ErrorIs(t, err, snapshot.ErrMalformedHierarchy)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Snapshots)
	assert.Equal(t, 3, report.Observations)
}

func TestRunFromWalker(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lines", "2023", "01", "05")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// not an archive: decoded as a failure and skipped
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2023-01-05_08-00-00.tar.gz"), []byte("junk"), 0o644))

	walker, err := snapshot.NewWalker(root, "lines", nil)
	require.NoError(t, err)

	node := openTestStore(t)
	report, err := Run(walker, NewWriter(node, NewLineCache(), CommitPerSnapshot, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Snapshots)
	assert.Equal(t, 1, report.DecodeFailures)
	assert.Zero(t, report.Observations)
}
