// Command validate checks a fixture of report submissions end to end: every
// record must pass the submission rules, survive a create/get/list/update
// round trip through the report service, and serialize into a lifecycle
// event that decodes back to the same report.
//
// Usage:
//
//	go run ./cmd/reportctl seed -n 50 -out data/reports.json
//	go run ./cmd/validate -fixture data/reports.json [-dsn postgres://...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	"github.com/couchcryptid/marine-pollution-reports/internal/reports"
	"github.com/couchcryptid/marine-pollution-reports/internal/store/memory"
	"github.com/couchcryptid/marine-pollution-reports/internal/store/postgres"
	"github.com/jonboulle/clockwork"
)

var fixedNow = time.Date(2024, time.May, 2, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixture := flag.String("fixture", "", "path to a JSON array of report submissions")
	dsn := flag.String("dsn", "", "run the round trip against this Postgres database instead of memory")
	flag.Parse()

	if *fixture == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*fixture, *dsn, os.Stdout))
}

func run(fixturePath, dsn string, out io.Writer) int {
	fmt.Fprintln(out, "=== Pollution Report Fixture Validation ===")
	fmt.Fprintln(out)

	submissions, err := loadJSON[map[string]any](fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(fixedNow)
	repo, err := openRepository(ctx, dsn, clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open repository: %v\n", err)
		return 1
	}
	svc := reports.New(repo, nil, clock, slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(), time.Second)

	schema := validateSchema(submissions)
	precision := validatePrecision(submissions)
	roundTrip, created := validateRoundTrip(ctx, svc, submissions)
	phases := []*phase{
		schema,
		precision,
		roundTrip,
		validateUpdates(ctx, svc, created),
		validateEvents(created, clock.Now()),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d submitted, %d stored\n", len(submissions), len(created))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func openRepository(ctx context.Context, dsn string, clock clockwork.Clock) (reports.Repository, error) {
	if dsn == "" {
		return memory.New(clock), nil
	}
	return postgres.Open(ctx, dsn, clock)
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return items, nil
}

func validateSchema(subs []map[string]any) *phase {
	p := &phase{name: "Submission rules"}
	for i, s := range subs {
		in, err := domain.ValidateCreate(s)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if err := domain.ValidateInput(in); err != nil {
			p.errorf("record %d: typed input no longer valid: %v", i, err)
		}
	}
	return p
}

func validatePrecision(subs []map[string]any) *phase {
	p := &phase{name: "Coordinate precision (6 dp)"}
	for i, s := range subs {
		for _, f := range []string{domain.FieldLatitude, domain.FieldLongitude} {
			v, ok := s[f].(float64)
			if !ok {
				continue
			}
			if math.Abs(math.Round(v*1e6)/1e6-v) > 1e-9 {
				p.errorf("record %d: %s %v has more than 6 decimals", i, f, v)
			}
		}
	}
	return p
}

func validateRoundTrip(ctx context.Context, svc *reports.Service, subs []map[string]any) (*phase, []domain.PollutionReport) {
	p := &phase{name: "Create / get / list round trip"}
	created := make([]domain.PollutionReport, 0, len(subs))

	for i, s := range subs {
		if _, err := domain.ValidateCreate(s); err != nil {
			continue // reported by validateSchema
		}
		r, err := svc.Create(ctx, s)
		if err != nil {
			p.errorf("record %d: create: %v", i, err)
			continue
		}
		if !r.CreatedAt.Equal(fixedNow) {
			p.errorf("record %d: createdAt %s, want %s", i, r.CreatedAt, fixedNow)
		}
		got, err := svc.Get(ctx, r.ID)
		if err != nil {
			p.errorf("record %d: get %d: %v", i, r.ID, err)
			continue
		}
		if !sameReport(r, got) {
			p.errorf("record %d: get %d returned a different report", i, r.ID)
		}
		created = append(created, r)
	}

	list, err := svc.List(ctx)
	if err != nil {
		p.errorf("list: %v", err)
		return p, created
	}
	if len(list) < len(created) {
		p.errorf("list returned %d reports, created %d", len(list), len(created))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ID <= list[i-1].ID {
			p.errorf("list not in ID order at index %d", i)
			break
		}
	}
	return p, created
}

func validateUpdates(ctx context.Context, svc *reports.Service, created []domain.PollutionReport) *phase {
	p := &phase{name: "Partial update preserves fields"}
	for _, r := range created {
		next := nextSeverity(r.Severity)
		updated, err := svc.Update(ctx, r.ID, map[string]any{domain.FieldSeverity: string(next)})
		if err != nil {
			p.errorf("report %d: update: %v", r.ID, err)
			continue
		}
		want := r
		want.Severity = next
		if !sameReport(want, updated) {
			p.errorf("report %d: update changed fields other than severity", r.ID)
		}
	}
	return p
}

func validateEvents(created []domain.PollutionReport, now time.Time) *phase {
	p := &phase{name: "Lifecycle event encoding"}
	for _, r := range created {
		data, err := domain.NewReportEvent(domain.EventReportCreated, r, now).Marshal()
		if err != nil {
			p.errorf("report %d: %v", r.ID, err)
			continue
		}
		var decoded domain.ReportEvent
		if err := json.Unmarshal(data, &decoded); err != nil {
			p.errorf("report %d: decode event: %v", r.ID, err)
			continue
		}
		if decoded.ReportID != r.ID || decoded.Report == nil || !sameReport(r, *decoded.Report) {
			p.errorf("report %d: event does not carry the stored report", r.ID)
		}
	}
	return p
}

func nextSeverity(s domain.Severity) domain.Severity {
	for i, v := range domain.Severities {
		if v == s {
			return domain.Severities[(i+1)%len(domain.Severities)]
		}
	}
	return domain.SeverityLow
}

func sameReport(a, b domain.PollutionReport) bool {
	return a.ID == b.ID &&
		floatEq(a.Latitude, b.Latitude) &&
		floatEq(a.Longitude, b.Longitude) &&
		a.PollutionType == b.PollutionType &&
		a.Severity == b.Severity &&
		a.Description == b.Description &&
		a.DateObserved == b.DateObserved &&
		ptrStrEq(a.TimeObserved, b.TimeObserved) &&
		ptrStrEq(a.Name, b.Name) &&
		ptrStrEq(a.Email, b.Email) &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrStrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
