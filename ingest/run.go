package ingest

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/underlx/tflstatus/snapshot"
)

// Source produces snapshots one at a time. *snapshot.Walker is a Source
type Source interface {
	Next() bool
	Snapshot() snapshot.Snapshot
	Err() error
}

// Report sums up an ingestion run
type Report struct {
	Snapshots      int
	EmptySnapshots int
	DecodeFailures int
	Observations   int
	Statuses       int
	Conflicts      []error
	Elapsed        time.Duration
}

// Skipped returns the number of records and archives that were not written
// because of conflicts or decode failures
func (r *Report) Skipped() int {
	return len(r.Conflicts) + r.DecodeFailures
}

func (r *Report) String() string {
	return fmt.Sprintf("%s snapshots (%s without data, %s undecodable) ingested in %s: %s observations and %s statuses written, %s skipped",
		humanize.Comma(int64(r.Snapshots)),
		humanize.Comma(int64(r.EmptySnapshots)),
		humanize.Comma(int64(r.DecodeFailures)),
		durafmt.Parse(r.Elapsed.Truncate(time.Millisecond)).LimitFirstN(2),
		humanize.Comma(int64(r.Observations)),
		humanize.Comma(int64(r.Statuses)),
		humanize.Comma(int64(r.Skipped())))
}

// Run feeds every snapshot of source to writer. Conflicting records and
// undecodable archives are tallied and skipped; a failure of the source or
// of the writer stops the run, and the report so far is returned with it
func Run(source Source, writer *Writer) (*Report, error) {
	start := time.Now()
	report := &Report{}
	defer func() {
		report.Elapsed = time.Since(start)
	}()

	for source.Next() {
		snap := source.Snapshot()
		report.Snapshots++
		if snap.Err != nil {
			report.DecodeFailures++
			continue
		}
		if snap.Empty() {
			report.EmptySnapshots++
			continue
		}

		result, err := writer.Ingest(snap)
		if err != nil {
			return report, err
		}
		report.Observations += result.Observations
		report.Statuses += result.Statuses
		report.Conflicts = append(report.Conflicts, result.Conflicts...)
		for _, conflict := range result.Conflicts {
			writer.log.Println(conflict)
		}
	}
	if err := source.Err(); err != nil {
		return report, fmt.Errorf("Run: %w", err)
	}
	return report, nil
}
