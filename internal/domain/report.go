package domain

import "time"

// PollutionType classifies what was observed.
type PollutionType string

const (
	PollutionPlastic   PollutionType = "plastic"
	PollutionOil       PollutionType = "oil"
	PollutionSewage    PollutionType = "sewage"
	PollutionAbandoned PollutionType = "abandoned"
	PollutionOther     PollutionType = "other"
)

// PollutionTypes lists the accepted pollution types in display order.
var PollutionTypes = []PollutionType{
	PollutionPlastic, PollutionOil, PollutionSewage, PollutionAbandoned, PollutionOther,
}

// Severity is the reporter's assessment of impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the accepted severity levels from least to most severe.
var Severities = []Severity{SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical}

// ReportInput holds the client-owned fields of a report after full validation.
type ReportInput struct {
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	PollutionType PollutionType `json:"pollutionType"`
	Severity      Severity      `json:"severity"`
	Description   string        `json:"description"`
	DateObserved  string        `json:"dateObserved"`
	TimeObserved  *string       `json:"timeObserved"`
	Name          *string       `json:"name"`
	Email         *string       `json:"email"`
}

// PollutionReport is a stored report.
type PollutionReport struct {
	ID int64 `json:"id"`
	ReportInput
	CreatedAt time.Time `json:"createdAt"`
}

// ReportPatch carries the fields supplied to a partial update. Nil fields are
// left untouched. The Clear flags record an explicit null for the nullable
// fields and take precedence over the matching value.
type ReportPatch struct {
	Latitude      *float64
	Longitude     *float64
	PollutionType *PollutionType
	Severity      *Severity
	Description   *string
	DateObserved  *string
	TimeObserved  *string
	Name          *string
	Email         *string

	ClearTimeObserved bool
	ClearName         bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ReportPatch) IsEmpty() bool {
	return p == ReportPatch{}
}

// Fields returns the JSON names of the supplied fields in schema order.
func (p ReportPatch) Fields() []string {
	var fields []string
	if p.Latitude != nil {
		fields = append(fields, FieldLatitude)
	}
	if p.Longitude != nil {
		fields = append(fields, FieldLongitude)
	}
	if p.PollutionType != nil {
		fields = append(fields, FieldPollutionType)
	}
	if p.Severity != nil {
		fields = append(fields, FieldSeverity)
	}
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.DateObserved != nil {
		fields = append(fields, FieldDateObserved)
	}
	if p.TimeObserved != nil || p.ClearTimeObserved {
		fields = append(fields, FieldTimeObserved)
	}
	if p.Name != nil || p.ClearName {
		fields = append(fields, FieldName)
	}
	if p.Email != nil {
		fields = append(fields, FieldEmail)
	}
	return fields
}

// Apply merges the supplied fields onto the report. ID and CreatedAt are
// never touched.
func (p ReportPatch) Apply(r PollutionReport) PollutionReport {
	if p.Latitude != nil {
		r.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		r.Longitude = *p.Longitude
	}
	if p.PollutionType != nil {
		r.PollutionType = *p.PollutionType
	}
	if p.Severity != nil {
		r.Severity = *p.Severity
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.DateObserved != nil {
		r.DateObserved = *p.DateObserved
	}
	switch {
	case p.ClearTimeObserved:
		r.TimeObserved = nil
	case p.TimeObserved != nil:
		r.TimeObserved = cloneString(p.TimeObserved)
	}
	switch {
	case p.ClearName:
		r.Name = nil
	case p.Name != nil:
		r.Name = cloneString(p.Name)
	}
	if p.Email != nil {
		r.Email = cloneString(p.Email)
	}
	return r
}

// Clone returns a copy whose optional fields do not alias the receiver's.
func (r PollutionReport) Clone() PollutionReport {
	r.TimeObserved = cloneString(r.TimeObserved)
	r.Name = cloneString(r.Name)
	r.Email = cloneString(r.Email)
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
