package snapshot

import (
	"time"

	"github.com/thoas/go-funk"
)

// Categories are the kinds of data collected under the data root
var Categories = []string{"air_quality", "bikes", "charge_connectors", "lines"}

// IsCategory returns whether category is one of Categories
func IsCategory(category string) bool {
	return funk.ContainsString(Categories, category)
}

// Snapshot is the content of one archive, taken at Time.
// Lines is nil when the archive carried no data, either because it was empty
// or because it could not be decoded, in which case Err is set
type Snapshot struct {
	Time  time.Time
	Path  string
	Lines []LineRecord
	Err   error
}

// Empty returns whether the snapshot carries no line data
func (s Snapshot) Empty() bool {
	return s.Lines == nil
}

// LineRecord is the status report of a single line
type LineRecord struct {
	ModeName     string       `json:"modeName"`
	Name         string       `json:"name"`
	LineStatuses []LineStatus `json:"lineStatuses"`
}

// LineStatus is one of the conditions reported for a line
type LineStatus struct {
	StatusSeverityDescription string      `json:"statusSeverityDescription"`
	StatusSeverity            int         `json:"statusSeverity"`
	Reason                    string      `json:"reason,omitempty"`
	Disruption                *Disruption `json:"disruption,omitempty"`
}

// Disruption details the cause of a degraded status
type Disruption struct {
	Category       string `json:"category"`
	Description    string `json:"description"`
	AdditionalInfo string `json:"additionalInfo"`
}
