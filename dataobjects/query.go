package dataobjects

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/SaidinWoT/timespan"
	"github.com/gbl08ma/sqalx"
)

// ObservationFilter selects observations. From is inclusive and To is
// exclusive; a zero time leaves that side of the range open. A nil slice
// imposes no constraint, while a non-nil empty slice matches nothing.
// When Statuses is set, an observation matches if at least one of its
// statuses has one of the given descriptions, so observations without
// statuses only match filters that leave Statuses unset
type ObservationFilter struct {
	From     time.Time
	To       time.Time
	Modes    []string
	Lines    []string
	Statuses []string
}

// During returns a copy of the filter restricted to the given span
func (f ObservationFilter) During(span timespan.Span) ObservationFilter {
	f.From = span.Start()
	f.To = span.End()
	return f
}

// Validate checks the filter for contradictions
func (f ObservationFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidFilter,
			f.To.Format(time.RFC3339), f.From.Format(time.RFC3339))
	}
	sets := []struct {
		name   string
		values []string
	}{
		{"mode", f.Modes},
		{"line", f.Lines},
		{"status", f.Statuses},
	}
	for _, set := range sets {
		for _, value := range set.values {
			if value == "" {
				return fmt.Errorf("%w: empty %s name", ErrInvalidFilter, set.name)
			}
		}
	}
	return nil
}

// ObservationQuery is a validated ObservationFilter turned into a predicate
// that can be run either to retrieve or to count the matching observations
type ObservationQuery struct {
	filter    ObservationFilter
	predicate sq.SelectBuilder
}

// NewObservationQuery validates filter and builds the query for it
func NewObservationQuery(filter ObservationFilter) (*ObservationQuery, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s := sdb.Select()
	if !filter.From.IsZero() {
		s = s.Where(sq.GtOrEq{"observation.timestamp": Timestamp(ceilSecond(filter.From))})
	}
	if !filter.To.IsZero() {
		s = s.Where(sq.Lt{"observation.timestamp": Timestamp(ceilSecond(filter.To))})
	}
	if filter.Modes != nil {
		s = s.Where(sq.Eq{"observation.mode": filter.Modes})
	}
	if filter.Lines != nil {
		s = s.Where(sq.Eq{"observation.line": filter.Lines})
	}
	if filter.Statuses != nil {
		reported := sq.Select("1").
			From("status").
			Where("status.parent = observation.id").
			Where(sq.Eq{"status.description": filter.Statuses})
		s = s.Where(sq.Expr("EXISTS (?)", reported))
	}
	return &ObservationQuery{
		filter:    filter,
		predicate: s,
	}, nil
}

// Filter returns the filter this query was built from
func (q *ObservationQuery) Filter() ObservationFilter {
	return q.filter
}

// Observations returns the matching observations ordered by time, mode and line
func (q *ObservationQuery) Observations(node sqalx.Node) ([]*Observation, error) {
	s := q.predicate.
		OrderBy("observation.timestamp ASC", "observation.mode ASC", "observation.line ASC")
	return getObservationsWithSelect(node, s)
}

// Count returns the number of matching observations
func (q *ObservationQuery) Count(node sqalx.Node) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Commit() // read-only tx

	var count int
	err = sdb.Select("COUNT(*)").
		FromSelect(withObservationColumns(q.predicate), "matches").
		RunWith(rw(tx)).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountObservations: %w", err)
	}
	return count, nil
}

// CountObservations is a shorthand for building a query for filter and counting its results
func CountObservations(node sqalx.Node, filter ObservationFilter) (int, error) {
	q, err := NewObservationQuery(filter)
	if err != nil {
		return 0, err
	}
	return q.Count(node)
}

// GetObservations is a shorthand for building a query for filter and retrieving its results
func GetObservations(node sqalx.Node, filter ObservationFilter) ([]*Observation, error) {
	q, err := NewObservationQuery(filter)
	if err != nil {
		return nil, err
	}
	return q.Observations(node)
}
