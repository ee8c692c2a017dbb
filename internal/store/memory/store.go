// Package memory provides an in-process report repository. Contents live for
// the lifetime of the Store value; each Store has its own ID sequence.
package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Store keeps reports in a map keyed by ID, plus the insertion order for
// listing. It implements reports.Repository.
type Store struct {
	clock clockwork.Clock

	mu      sync.Mutex
	nextID  int64
	reports map[int64]domain.PollutionReport
	order   []int64
}

// New creates an empty Store. A nil clock uses real time.
func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:   clock,
		nextID:  1,
		reports: make(map[int64]domain.PollutionReport),
	}
}

func (s *Store) Create(_ context.Context, in domain.ReportInput) (domain.PollutionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.PollutionReport{
		ID:          s.nextID,
		ReportInput: in,
		CreatedAt:   s.clock.Now().UTC(),
	}.Clone()
	s.nextID++

	s.reports[report.ID] = report
	s.order = append(s.order, report.ID)
	return report.Clone(), nil
}

func (s *Store) Get(_ context.Context, id int64) (domain.PollutionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return domain.PollutionReport{}, domain.ErrNotFound
	}
	return report.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]domain.PollutionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PollutionReport, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id].Clone())
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, id int64, patch domain.ReportPatch) (domain.PollutionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reports[id]
	if !ok {
		return domain.PollutionReport{}, domain.ErrNotFound
	}
	updated := patch.Apply(existing)
	s.reports[id] = updated
	return updated.Clone(), nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return false, nil
	}
	delete(s.reports, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
