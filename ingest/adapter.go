package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/underlx/tflstatus/dataobjects"
	"github.com/underlx/tflstatus/snapshot"
)

// ErrMalformedRecord is the cause of the SchemaViolationError reported for
// records that can't be mapped to an observation
var ErrMalformedRecord = errors.New("malformed line record")

// newObservation maps a record of the snapshot taken at t to the observation
// and statuses that represent it in the store
func newObservation(t time.Time, record snapshot.LineRecord) (*dataobjects.Observation, []*dataobjects.Status, error) {
	if record.ModeName == "" || record.Name == "" {
		return nil, nil, &dataobjects.SchemaViolationError{
			Table: "observation",
			Key:   fmt.Sprintf("%s %q/%q", t.UTC().Format(time.RFC3339), record.ModeName, record.Name),
			Err:   fmt.Errorf("%w: missing mode or line name", ErrMalformedRecord),
		}
	}

	observation := &dataobjects.Observation{
		Time: t,
		Mode: record.ModeName,
		Line: record.Name,
	}

	statuses := make([]*dataobjects.Status, 0, len(record.LineStatuses))
	for i, lineStatus := range record.LineStatuses {
		if lineStatus.StatusSeverityDescription == "" {
			return nil, nil, &dataobjects.SchemaViolationError{
				Table: "status",
				Key:   observation.Key(),
				Err:   fmt.Errorf("%w: status %d has no description", ErrMalformedRecord, i),
			}
		}
		statuses = append(statuses, newStatus(lineStatus))
	}
	return observation, statuses, nil
}

func newStatus(lineStatus snapshot.LineStatus) *dataobjects.Status {
	status := &dataobjects.Status{
		Description: lineStatus.StatusSeverityDescription,
		Severity:    lineStatus.StatusSeverity,
		Reason:      nullable(lineStatus.Reason),
	}
	if d := lineStatus.Disruption; d != nil {
		status.DisruptionCategory = nullable(d.Category)
		status.DisruptionDescription = nullable(d.Description)
		status.DisruptionAdditionalInfo = nullable(d.AdditionalInfo)
	}
	return status
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
