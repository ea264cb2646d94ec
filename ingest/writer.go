package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gbl08ma/sqalx"
	"github.com/underlx/tflstatus/dataobjects"
	"github.com/underlx/tflstatus/snapshot"
)

// CommitPolicy controls how often the writer commits to the store
type CommitPolicy int

const (
	// CommitPerSnapshot commits once per snapshot file
	CommitPerSnapshot CommitPolicy = iota
	// CommitPerObservation commits each observation together with its statuses
	CommitPerObservation
)

func (p CommitPolicy) String() string {
	switch p {
	case CommitPerSnapshot:
		return "snapshot"
	case CommitPerObservation:
		return "observation"
	}
	return fmt.Sprintf("CommitPolicy(%d)", int(p))
}

// ParseCommitPolicy returns the CommitPolicy with the given name
func ParseCommitPolicy(name string) (CommitPolicy, error) {
	switch name {
	case "snapshot":
		return CommitPerSnapshot, nil
	case "observation":
		return CommitPerObservation, nil
	}
	return 0, fmt.Errorf("ParseCommitPolicy: unknown commit policy %q", name)
}

// Result sums up what was written for one snapshot
type Result struct {
	Observations int
	Statuses     int
	// Conflicts holds one SchemaViolationError per skipped record
	Conflicts []error
}

// Writer persists snapshots as observations and statuses
type Writer struct {
	node   sqalx.Node
	cache  *LineCache
	policy CommitPolicy
	log    *log.Logger
	// status descriptions outside the known vocabulary already reported
	unseen map[string]bool
}

// NewWriter returns a Writer that writes to node. cache is consulted before
// writing (mode, line) pairs and learns every pair the writer persists
func NewWriter(node sqalx.Node, cache *LineCache, policy CommitPolicy, logger *log.Logger) *Writer {
	if cache == nil {
		cache = NewLineCache()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Writer{
		node:   node,
		cache:  cache,
		policy: policy,
		log:    logger,
		unseen: make(map[string]bool),
	}
}

// Ingest writes every record of snap. Records that conflict with the store
// content or that are malformed are skipped and reported in the result.
// Any other failure aborts the snapshot and is returned
func (w *Writer) Ingest(snap snapshot.Snapshot) (Result, error) {
	result := Result{}
	if snap.Empty() {
		return result, nil
	}

	node := w.node
	if w.policy == CommitPerSnapshot {
		tx, err := w.node.Beginx()
		if err != nil {
			return result, fmt.Errorf("Ingest: %w", err)
		}
		defer tx.Rollback()
		node = tx
	}

	// pairs written in this snapshot's transaction, not yet durable
	pending := []*dataobjects.Line{}
	for _, record := range snap.Lines {
		observation, statuses, err := newObservation(snap.Time, record)
		if err != nil {
			result.Conflicts = append(result.Conflicts, err)
			continue
		}

		line := &dataobjects.Line{Mode: observation.Mode, Name: observation.Line}
		written, err := w.writeObservation(node, line, observation, statuses)
		if errors.Is(err, dataobjects.ErrSchemaViolation) {
			result.Conflicts = append(result.Conflicts, err)
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("Ingest: %s: %w", snap.Path, err)
		}

		result.Observations++
		result.Statuses += len(statuses)
		if written {
			if w.policy == CommitPerObservation {
				w.cache.Remember(line.Mode, line.Name)
			} else {
				pending = append(pending, line)
			}
		}
	}

	if w.policy == CommitPerSnapshot {
		if err := node.Commit(); err != nil {
			return Result{}, fmt.Errorf("Ingest: %s: %w", snap.Path, err)
		}
		for _, line := range pending {
			w.cache.Remember(line.Mode, line.Name)
		}
	}
	return result, nil
}

// writeObservation writes the observation and its statuses as one unit,
// preceded by the line when the cache doesn't know it. It returns whether
// the line was written
func (w *Writer) writeObservation(node sqalx.Node, line *dataobjects.Line, observation *dataobjects.Observation, statuses []*dataobjects.Status) (bool, error) {
	tx, err := node.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	written := false
	if !w.cache.Known(line.Mode, line.Name) {
		if err := line.Insert(tx); err != nil {
			return false, err
		}
		written = true
	}

	if err := observation.Insert(tx); err != nil {
		return false, err
	}

	for _, status := range statuses {
		w.checkVocabulary(status.Description)
		if err := observation.AddStatus(tx, status); err != nil {
			// rolls back the observation too
			return false, fmt.Errorf("%s: %w", observation.Key(), err)
		}
	}
	return written, tx.Commit()
}

func (w *Writer) checkVocabulary(description string) {
	if w.unseen[description] || dataobjects.IsKnownStatusDescription(description) {
		return
	}
	w.unseen[description] = true
	w.log.Printf("Storing unseen status description %q", description)
}
