package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Mode is a transport mode, such as "tube" or "bus"
type Mode struct {
	Name string
}

// GetModes returns a slice with all registered modes
func GetModes(node sqalx.Node) ([]*Mode, error) {
	return getModesWithSelect(node, sdb.Select().OrderBy("mode.name ASC"))
}

// GetMode returns the Mode with the given name
func GetMode(node sqalx.Node, name string) (*Mode, error) {
	if value, present := node.Load(getCacheKey("mode", name)); present {
		return value.(*Mode), nil
	}
	s := sdb.Select().
		Where(sq.Eq{"mode.name": name})
	modes, err := getModesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		return nil, errors.New("Mode not found")
	}
	node.Store(getCacheKey("mode", name), modes[0])
	return modes[0], nil
}

func getModesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Mode, error) {
	modes := []*Mode{}

	tx, err := node.Beginx()
	if err != nil {
		return modes, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("mode.name").
		From("mode").
		RunWith(tx).Query()
	if err != nil {
		return modes, fmt.Errorf("getModesWithSelect: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mode Mode
		if err := rows.Scan(&mode.Name); err != nil {
			return modes, fmt.Errorf("getModesWithSelect: %w", err)
		}
		modes = append(modes, &mode)
	}
	if err := rows.Err(); err != nil {
		return modes, fmt.Errorf("getModesWithSelect: %w", err)
	}
	return modes, nil
}

// Lines returns the lines of this mode
func (mode *Mode) Lines(node sqalx.Node) ([]*Line, error) {
	return GetLinesForMode(node, mode.Name)
}

// Insert adds the mode if it doesn't exist yet
func (mode *Mode) Insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("mode").
		Columns("name").
		Values(mode.Name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("InsertMode: %w", classify(err, "mode", mode.Name))
	}
	return tx.Commit()
}
