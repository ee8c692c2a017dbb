package client

import (
	"context"
	"math"
	"sync"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/jonboulle/clockwork"
)

const coordinatePrecision = 1e6

// Draft is a report being composed: the point picked on the map plus the form
// fields typed so far. It is safe for concurrent use.
type Draft struct {
	clock clockwork.Clock

	mu     sync.Mutex
	fields map[string]any
}

// NewDraft returns an empty draft whose observation date defaults to today.
// A nil clock uses real time.
func NewDraft(clock clockwork.Clock) *Draft {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &Draft{clock: clock}
	d.Reset()
	return d
}

// SelectLocation records a map click, rounding both coordinates to six
// decimal places.
func (d *Draft) SelectLocation(lat, lng float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields[domain.FieldLatitude] = roundCoordinate(lat)
	d.fields[domain.FieldLongitude] = roundCoordinate(lng)
}

// Location returns the selected coordinates, if any.
func (d *Draft) Location() (lat, lng float64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lat, latOK := d.fields[domain.FieldLatitude].(float64)
	lng, lngOK := d.fields[domain.FieldLongitude].(float64)
	return lat, lng, latOK && lngOK
}

// Merge overlays form field changes onto the draft. A blank string clears the
// field, matching an emptied form input.
func (d *Draft) Merge(fields map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range fields {
		if s, ok := v.(string); ok && s == "" {
			delete(d.fields, k)
			continue
		}
		d.fields[k] = v
	}
}

// Fields returns a copy of the draft's current values.
func (d *Draft) Fields() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// Validate checks the draft against the same rules the server applies.
func (d *Draft) Validate() error {
	_, err := domain.ValidateCreate(d.Fields())
	return err
}

// Submit validates the draft and creates the report. The draft is reset only
// when the server accepts it.
func (d *Draft) Submit(ctx context.Context, c *Client) (domain.PollutionReport, error) {
	fields := d.Fields()
	if _, err := domain.ValidateCreate(fields); err != nil {
		return domain.PollutionReport{}, err
	}

	report, err := c.Create(ctx, fields)
	if err != nil {
		return domain.PollutionReport{}, err
	}
	d.Reset()
	return report, nil
}

// Reset discards all fields and restores the default observation date.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = map[string]any{
		domain.FieldDateObserved: d.clock.Now().Format("2006-01-02"),
	}
}

func (d *Draft) snapshot() map[string]any {
	out := make(map[string]any, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

func roundCoordinate(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}
