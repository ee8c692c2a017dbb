package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventType names a report lifecycle transition.
type EventType string

const (
	EventReportCreated EventType = "report.created"
	EventReportUpdated EventType = "report.updated"
	EventReportDeleted EventType = "report.deleted"
)

// ReportEvent is published after a report write succeeds. Report is nil for
// deletions.
type ReportEvent struct {
	Type       EventType        `json:"type"`
	ReportID   int64            `json:"reportId"`
	Report     *PollutionReport `json:"report,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// NewReportEvent builds an event for a created or updated report.
func NewReportEvent(t EventType, r PollutionReport, at time.Time) ReportEvent {
	r = r.Clone()
	return ReportEvent{Type: t, ReportID: r.ID, Report: &r, OccurredAt: at.UTC()}
}

// NewDeletedEvent builds an event for a deleted report.
func NewDeletedEvent(id int64, at time.Time) ReportEvent {
	return ReportEvent{Type: EventReportDeleted, ReportID: id, OccurredAt: at.UTC()}
}

// Key returns the partitioning key for the event: the report ID in base 10.
func (e ReportEvent) Key() string {
	return strconv.FormatInt(e.ReportID, 10)
}

// Marshal serializes the event as JSON.
func (e ReportEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialize report event: %w", err)
	}
	return data, nil
}
