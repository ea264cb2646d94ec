package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Observation is one snapshot of a single line at a single point in time
type Observation struct {
	ID   int64
	Time time.Time
	Mode string
	Line string
}

var observationColumns = []string{
	"observation.id",
	"observation.timestamp",
	"observation.mode",
	"observation.line",
}

// GetObservation returns the Observation with the given ID
func GetObservation(node sqalx.Node, id int64) (*Observation, error) {
	s := sdb.Select().
		Where(sq.Eq{"observation.id": id})
	observations, err := getObservationsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, errors.New("Observation not found")
	}
	return observations[0], nil
}

func withObservationColumns(sbuilder sq.SelectBuilder) sq.SelectBuilder {
	return sbuilder.Columns(observationColumns...).From("observation")
}

func getObservationsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Observation, error) {
	observations := []*Observation{}

	tx, err := node.Beginx()
	if err != nil {
		return observations, err
	}
	defer tx.Commit() // read-only tx

	rows, err := withObservationColumns(sbuilder).
		RunWith(tx).Query()
	if err != nil {
		return observations, fmt.Errorf("getObservationsWithSelect: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var observation Observation
		var timestamp Timestamp
		err := rows.Scan(
			&observation.ID,
			&timestamp,
			&observation.Mode,
			&observation.Line)
		if err != nil {
			return observations, fmt.Errorf("getObservationsWithSelect: %w", err)
		}
		observation.Time = time.Time(timestamp)
		observations = append(observations, &observation)
	}
	if err := rows.Err(); err != nil {
		return observations, fmt.Errorf("getObservationsWithSelect: %w", err)
	}
	return observations, nil
}

// Key identifies the observation by its unique (timestamp, mode, line) triple
func (observation *Observation) Key() string {
	return fmt.Sprintf("%s %s/%s", observation.Time.UTC().Format(timestampLayout), observation.Mode, observation.Line)
}

// Insert adds the observation and sets its ID. The (mode, line) pair must
// already exist. If an observation for the same timestamp, mode and line
// exists, nothing is written and a SchemaViolationError wrapping
// ErrDuplicateObservation is returned
func (observation *Observation) Insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = sdb.Insert("observation").
		Columns("timestamp", "mode", "line").
		Values(Timestamp(observation.Time), observation.Mode, observation.Line).
		Suffix("ON CONFLICT (timestamp, mode, line) DO NOTHING RETURNING id").
		RunWith(rw(tx)).QueryRow().Scan(&observation.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &SchemaViolationError{Table: "observation", Key: observation.Key(), Err: ErrDuplicateObservation}
	case err != nil:
		return fmt.Errorf("InsertObservation: %w", classify(err, "observation", observation.Key()))
	}
	return tx.Commit()
}

// Statuses returns the statuses reported for this observation
func (observation *Observation) Statuses(node sqalx.Node) ([]*Status, error) {
	s := sdb.Select().
		Where(sq.Eq{"status.parent": observation.ID}).
		OrderBy("status.id ASC")
	return getStatusesWithSelect(node, s)
}

// AddStatus inserts status as one of the statuses of this observation
func (observation *Observation) AddStatus(node sqalx.Node, status *Status) error {
	status.Parent = observation.ID
	return status.Insert(node)
}
