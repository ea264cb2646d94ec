package dataobjects

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

var sdb sq.StatementBuilderType

// Dialect identifies the SQL flavour spoken by the store
type Dialect string

const (
	// SQLite is the embedded store, driven by modernc.org/sqlite
	SQLite Dialect = "sqlite"
	// Postgres is a PostgreSQL server, driven by lib/pq
	Postgres Dialect = "postgres"
)

var dialect = SQLite

func init() {
	sdb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Initialize sets the dialect used by every statement built by this package.
// It must be called before any other function when not using SQLite
func Initialize(d Dialect) error {
	switch d {
	case SQLite:
		sdb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case Postgres:
		sdb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return fmt.Errorf("Initialize: unsupported dialect %q", d)
	}
	dialect = d
	return nil
}

// runner lets squirrel run QueryRow on a sqalx.Node
type runner struct {
	sqalx.Node
}

func (r runner) QueryRow(query string, args ...interface{}) sq.RowScanner {
	return r.QueryRowx(query, args...)
}

func rw(node sqalx.Node) runner {
	return runner{node}
}

// Timestamp wraps a time.Time with a fixed-width UTC representation in the
// store, so that lexical and chronological order agree on every dialect
type Timestamp time.Time

var timestampLayout = "2006-01-02T15:04:05Z"

// ErrTimestampParse is returned when a stored timestamp can't be parsed
var ErrTimestampParse = errors.New(`TimestampParseError: should be a string formatted as "2006-01-02T15:04:05Z"`)

// Scan implements the sql.Scanner interface.
func (t *Timestamp) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case time.Time:
		*t = Timestamp(v.UTC())
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.New("Scan: Invalid val type for scanning")
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		return ErrTimestampParse
	}
	*t = Timestamp(parsed)
	return nil
}

// Value implements the driver.Valuer interface.
func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(timestampLayout), nil
}

// ceilSecond rounds t up to the next whole second. Stored timestamps have
// second precision, so comparing against the rounded bound is exact
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Second)
}

func getCacheKey(objtype string, other ...interface{}) string {
	elem := make([]string, len(other))
	for i, e := range other {
		elem[i] = fmt.Sprint(e)
	}
	return strings.Join(append([]string{"do", objtype}, elem...), "-")
}
