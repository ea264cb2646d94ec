package snapshot

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rickb777/date"
)

// ErrMalformedHierarchy is returned when the data root doesn't have the
// <category>/<YYYY>/<MM>/<DD>/<file> layout
var ErrMalformedHierarchy = errors.New("malformed snapshot hierarchy")

const (
	levelYear = iota
	levelMonth
	levelDay
	levelFile
)

var levelNames = []string{"year", "month", "day", "file"}

// listing is the sorted content of one directory on the current path
type listing struct {
	dir     string
	entries []os.DirEntry
	pos     int
}

// Walker traverses the snapshots of a category in chronological order.
// Only the directory listings on the path to the current snapshot are held in
// memory. A Walker can't be restarted
type Walker struct {
	// Verbose enables a log line per decoded archive
	Verbose bool

	log   *log.Logger
	stack []*listing
	// year, month and day of the directories on the current path
	parts   [3]int
	current Snapshot
	err     error
}

// NewWalker returns a Walker over the snapshots of category found under root
func NewWalker(root, category string, logger *log.Logger) (*Walker, error) {
	if !IsCategory(category) {
		return nil, fmt.Errorf("NewWalker: unknown category %q", category)
	}
	dir := filepath.Join(root, category)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("NewWalker: %w: %w", ErrMalformedHierarchy, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("NewWalker: %w: %s is not a directory", ErrMalformedHierarchy, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("NewWalker: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Walker{
		log:   logger,
		stack: []*listing{{dir: dir, entries: entries}},
	}, nil
}

// Next advances the walker to the next snapshot, which is then available
// through Snapshot. It returns false when there are no more snapshots or
// when the walk failed, in which case Err returns the reason
func (w *Walker) Next() bool {
	if w.err != nil {
		return false
	}
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if top.pos >= len(top.entries) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		entry := top.entries[top.pos]
		top.pos++

		level := len(w.stack) - 1
		path := filepath.Join(top.dir, entry.Name())
		if level == levelFile {
			if entry.IsDir() {
				return w.fail(fmt.Errorf("%w: %s: expected a file", ErrMalformedHierarchy, path))
			}
			t, err := w.timeFromFilename(entry.Name())
			if err != nil {
				return w.fail(fmt.Errorf("%w: %s: %w", ErrMalformedHierarchy, path, err))
			}
			w.current = w.decode(t, path)
			return true
		}

		if !entry.IsDir() {
			return w.fail(fmt.Errorf("%w: %s: expected a %s directory", ErrMalformedHierarchy, path, levelNames[level]))
		}
		if err := w.enter(level, entry.Name()); err != nil {
			return w.fail(fmt.Errorf("%w: %s: %w", ErrMalformedHierarchy, path, err))
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return w.fail(fmt.Errorf("Next: %w", err))
		}
		w.stack = append(w.stack, &listing{dir: path, entries: entries})
	}
	return false
}

// Snapshot returns the snapshot the walker is positioned at
func (w *Walker) Snapshot() Snapshot {
	return w.current
}

// Err returns the error that stopped the walk, if any
func (w *Walker) Err() error {
	return w.err
}

// All returns an iterator over the remaining snapshots. Err must be checked
// once the iteration is over
func (w *Walker) All() iter.Seq[Snapshot] {
	return func(yield func(Snapshot) bool) {
		for w.Next() {
			if !yield(w.Snapshot()) {
				return
			}
		}
	}
}

func (w *Walker) fail(err error) bool {
	w.err = err
	w.stack = nil
	w.current = Snapshot{}
	return false
}

// enter records the value of the directory being descended into
func (w *Walker) enter(level int, name string) error {
	var err error
	switch level {
	case levelYear:
		w.parts[levelYear], err = parseComponent(name, 1, 9999)
	case levelMonth:
		w.parts[levelMonth], err = parseComponent(name, 1, 12)
	case levelDay:
		w.parts[levelDay], err = parseComponent(name, 1, 31)
		if err == nil {
			err = checkDate(w.parts[levelYear], w.parts[levelMonth], w.parts[levelDay])
		}
	}
	return err
}

func (w *Walker) timeFromFilename(name string) (time.Time, error) {
	if len(name) < 16 {
		return time.Time{}, errors.New("filename too short to hold a time of day")
	}
	hour, err := parseComponent(name[11:13], 0, 23)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := parseComponent(name[14:16], 0, 59)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(w.parts[levelYear], time.Month(w.parts[levelMonth]), w.parts[levelDay],
		hour, minute, 0, 0, time.UTC), nil
}

func (w *Walker) decode(t time.Time, path string) Snapshot {
	if w.Verbose {
		w.log.Println("Extracting data from", path)
	}
	lines, err := ReadArchive(path)
	if err != nil {
		w.log.Println(err)
		return Snapshot{Time: t, Path: path, Err: err}
	}
	return Snapshot{Time: t, Path: path, Lines: lines}
}

// parseComponent parses a zero-padded decimal path component
func parseComponent(s string, lo, hi int) (int, error) {
	if s == "" {
		return 0, errors.New("empty component")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	value, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if value < lo || value > hi {
		return 0, fmt.Errorf("%d is out of range [%d, %d]", value, lo, hi)
	}
	return value, nil
}

func checkDate(year, month, day int) error {
	d := date.New(year, time.Month(month), day)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return fmt.Errorf("%04d-%02d-%02d is not a valid date", year, month, day)
	}
	return nil
}
