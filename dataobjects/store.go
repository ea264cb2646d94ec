package dataobjects

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Open connects to the store identified by dialect and dsn, configures this
// package for that dialect and returns the database handle together with the
// root sqalx node every other function in this package expects.
// maxOpenConns is ignored for SQLite, which is restricted to a single
// connection so that writes are serialized and in-memory databases survive.
func Open(d Dialect, dsn string, maxOpenConns int) (*sqlx.DB, sqalx.Node, error) {
	if err := Initialize(d); err != nil {
		return nil, nil, err
	}

	if d == SQLite {
		dsn = withForeignKeys(dsn)
	}

	db, err := sqlx.Open(string(d), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("Open: %w", err)
	}

	if d == SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("Open: %w", err)
	}

	// nested transactions roll back on their own, so a rejected write
	// only undoes itself and not the enclosing transaction
	node, err := sqalx.New(db, sqalx.SavePoint(true))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("Open: %w", err)
	}
	return db, node, nil
}

// withForeignKeys makes sure SQLite enforces the foreign keys declared in the schema
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// SchemaSQL returns the schema for the current dialect
func SchemaSQL() string {
	if dialect == Postgres {
		return postgresSchema
	}
	return sqliteSchema
}

// EnsureSchema creates the tables and indexes that don't exist yet
func EnsureSchema(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL()); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return tx.Commit()
}
