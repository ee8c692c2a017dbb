package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Repository stores reports addressed by integer ID. Implementations assign
// IDs and CreatedAt on Create, return domain.ErrNotFound from Get and Update
// when the ID is absent, and wrap driver failures in *domain.StorageFault.
type Repository interface {
	Create(ctx context.Context, in domain.ReportInput) (domain.PollutionReport, error)
	Get(ctx context.Context, id int64) (domain.PollutionReport, error)
	List(ctx context.Context) ([]domain.PollutionReport, error)
	Update(ctx context.Context, id int64, patch domain.ReportPatch) (domain.PollutionReport, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// Publisher announces report lifecycle events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event domain.ReportEvent) error
}

// Service validates client input, persists reports, and publishes lifecycle
// events. It is safe for concurrent use if the repository is.
type Service struct {
	repo           Repository
	publisher      Publisher
	clock          clockwork.Clock
	logger         *slog.Logger
	metrics        *observability.Metrics
	publishTimeout time.Duration
}

// New creates a Service. A nil publisher disables event publishing.
func New(repo Repository, publisher Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, publishTimeout time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:           repo,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
		metrics:        metrics,
		publishTimeout: publishTimeout,
	}
}

// CheckReadiness reports whether the repository is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository not ready: %w", err)
	}
	return nil
}

// List returns every stored report in ID order.
func (s *Service) List(ctx context.Context) ([]domain.PollutionReport, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storageError("list", err)
	}
	return reports, nil
}

// Get returns one report or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.PollutionReport, error) {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.PollutionReport{}, s.storageError("get", err)
	}
	return report, nil
}

// Create validates a full submission and stores it.
func (s *Service) Create(ctx context.Context, input map[string]any) (domain.PollutionReport, error) {
	in, err := domain.ValidateCreate(input)
	if err != nil {
		s.countViolations(err)
		return domain.PollutionReport{}, err
	}

	report, err := s.repo.Create(ctx, in)
	if err != nil {
		return domain.PollutionReport{}, s.storageError("create", err)
	}

	s.metrics.ReportsCreated.Inc()
	s.logger.Info("report created",
		"report_id", report.ID,
		"pollution_type", report.PollutionType,
		"severity", report.Severity,
	)
	s.publish(ctx, domain.NewReportEvent(domain.EventReportCreated, report, s.clock.Now()))
	return report, nil
}

// Update validates a partial submission and merges it onto report id.
func (s *Service) Update(ctx context.Context, id int64, input map[string]any) (domain.PollutionReport, error) {
	patch, err := domain.ValidatePartial(input)
	if err != nil {
		s.countViolations(err)
		return domain.PollutionReport{}, err
	}

	report, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.PollutionReport{}, s.storageError("update", err)
	}

	s.metrics.ReportsUpdated.Inc()
	s.logger.Info("report updated", "report_id", id, "fields", patch.Fields())
	s.publish(ctx, domain.NewReportEvent(domain.EventReportUpdated, report, s.clock.Now()))
	return report, nil
}

// Delete removes report id permanently. It returns domain.ErrNotFound when
// nothing was removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.storageError("delete", err)
	}
	if !removed {
		return domain.ErrNotFound
	}

	s.metrics.ReportsDeleted.Inc()
	s.logger.Info("report deleted", "report_id", id)
	s.publish(ctx, domain.NewDeletedEvent(id, s.clock.Now()))
	return nil
}

// storageError counts and logs repository faults; not-found passes through.
func (s *Service) storageError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.metrics.StorageErrors.WithLabelValues(op).Inc()
	s.logger.Error("repository operation failed", "op", op, "error", err)

	var fault *domain.StorageFault
	if errors.As(err, &fault) {
		return err
	}
	return domain.NewStorageFault(op, err)
}

func (s *Service) countViolations(err error) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range verr.Fields() {
		if f == "" {
			f = "body"
		}
		s.metrics.ValidationFailures.WithLabelValues(f).Inc()
	}
}

// publish sends the event best-effort: the write already succeeded, so a
// failure is logged and counted but not returned.
func (s *Service) publish(ctx context.Context, event domain.ReportEvent) {
	if s.publisher == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		s.logger.Warn("publish report event failed",
			"event_type", event.Type,
			"report_id", event.ReportID,
			"error", err,
		)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(event.Type), "success").Inc()
}
