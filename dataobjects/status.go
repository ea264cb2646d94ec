package dataobjects

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/thoas/go-funk"
)

// Status is one condition reported for a line in an Observation
type Status struct {
	ID          int64
	Parent      int64
	Description string
	Severity    int
	Reason      *string

	DisruptionCategory       *string
	DisruptionDescription    *string
	DisruptionAdditionalInfo *string
}

// KnownStatusDescriptions are the status descriptions the feed is known to
// report. Others may appear and are stored all the same
var KnownStatusDescriptions = []string{
	"Special Service",
	"Closed",
	"Suspended",
	"Part Suspended",
	"Planned Closure",
	"Part Closure",
	"Severe Delays",
	"Reduced Service",
	"Bus Service",
	"Minor Delays",
	"Good Service",
	"Part Closed",
	"Exit Only",
	"No Step Free Access",
	"Change of frequency",
	"Diverted",
	"Not Running",
	"Issues Reported",
	"No Issues",
	"Information",
	"Service Closed",
}

// IsKnownStatusDescription returns whether description is one of KnownStatusDescriptions
func IsKnownStatusDescription(description string) bool {
	return funk.ContainsString(KnownStatusDescriptions, description)
}

var statusColumns = []string{
	"status.id",
	"status.parent",
	"status.description",
	"status.severity",
	"status.reason",
	"status.disruption_category",
	"status.disruption_description",
	"status.disruption_additional_info",
}

// GetStatusesWithDescription returns all statuses with one of the given descriptions
func GetStatusesWithDescription(node sqalx.Node, descriptions ...string) ([]*Status, error) {
	s := sdb.Select().
		Where(sq.Eq{"status.description": descriptions}).
		OrderBy("status.id ASC")
	return getStatusesWithSelect(node, s)
}

func getStatusesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Status, error) {
	statuses := []*Status{}

	tx, err := node.Beginx()
	if err != nil {
		return statuses, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns(statusColumns...).
		From("status").
		RunWith(tx).Query()
	if err != nil {
		return statuses, fmt.Errorf("getStatusesWithSelect: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status Status
		err := rows.Scan(
			&status.ID,
			&status.Parent,
			&status.Description,
			&status.Severity,
			&status.Reason,
			&status.DisruptionCategory,
			&status.DisruptionDescription,
			&status.DisruptionAdditionalInfo)
		if err != nil {
			return statuses, fmt.Errorf("getStatusesWithSelect: %w", err)
		}
		statuses = append(statuses, &status)
	}
	if err := rows.Err(); err != nil {
		return statuses, fmt.Errorf("getStatusesWithSelect: %w", err)
	}
	return statuses, nil
}

// Insert adds the status and sets its ID. The parent observation must exist
func (status *Status) Insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = sdb.Insert("status").
		Columns("parent", "description", "severity", "reason",
			"disruption_category", "disruption_description", "disruption_additional_info").
		Values(status.Parent, status.Description, status.Severity, nullString(status.Reason),
			nullString(status.DisruptionCategory), nullString(status.DisruptionDescription),
			nullString(status.DisruptionAdditionalInfo)).
		Suffix("RETURNING id").
		RunWith(rw(tx)).QueryRow().Scan(&status.ID)
	if err != nil {
		return fmt.Errorf("InsertStatus: %w", classify(err, "status", fmt.Sprint(status.Parent)))
	}
	return tx.Commit()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
