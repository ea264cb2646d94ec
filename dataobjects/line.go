package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Line is a named service route within a Mode
type Line struct {
	Mode string
	Name string
}

// GetLines returns a slice with all registered lines
func GetLines(node sqalx.Node) ([]*Line, error) {
	return getLinesWithSelect(node, sdb.Select().OrderBy("line.mode ASC", "line.line ASC"))
}

// GetLinesForMode returns the lines of the given mode
func GetLinesForMode(node sqalx.Node, mode string) ([]*Line, error) {
	s := sdb.Select().
		Where(sq.Eq{"line.mode": mode}).
		OrderBy("line.line ASC")
	return getLinesWithSelect(node, s)
}

// GetLine returns the Line with the given mode and name
func GetLine(node sqalx.Node, mode, name string) (*Line, error) {
	s := sdb.Select().
		Where(sq.Eq{"line.mode": mode, "line.line": name})
	lines, err := getLinesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("Line not found")
	}
	return lines[0], nil
}

func getLinesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Line, error) {
	lines := []*Line{}

	tx, err := node.Beginx()
	if err != nil {
		return lines, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("line.mode", "line.line").
		From("line").
		RunWith(tx).Query()
	if err != nil {
		return lines, fmt.Errorf("getLinesWithSelect: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.Mode,
			&line.Name)
		if err != nil {
			return lines, fmt.Errorf("getLinesWithSelect: %w", err)
		}
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return lines, fmt.Errorf("getLinesWithSelect: %w", err)
	}
	return lines, nil
}

// Insert adds the line, and its mode, if they don't exist yet
func (line *Line) Insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	mode := &Mode{Name: line.Mode}
	if err := mode.Insert(tx); err != nil {
		return fmt.Errorf("InsertLine: %w", err)
	}

	_, err = sdb.Insert("line").
		Columns("mode", "line").
		Values(line.Mode, line.Name).
		Suffix("ON CONFLICT (mode, line) DO NOTHING").
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("InsertLine: %w", classify(err, "line", line.Mode+"/"+line.Name))
	}
	return tx.Commit()
}

// Observations returns the observations of this line
func (line *Line) Observations(node sqalx.Node) ([]*Observation, error) {
	s := sdb.Select().
		Where(sq.Eq{"observation.mode": line.Mode, "observation.line": line.Name}).
		OrderBy("observation.timestamp ASC")
	return getObservationsWithSelect(node, s)
}
