package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/client"
	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
)

// site is a stretch of coastline sample reports are scattered around.
type site struct {
	name     string
	lat, lng float64
}

var sites = []site{
	{name: "Santa Monica Bay", lat: 33.95, lng: -118.55},
	{name: "Monterey Bay", lat: 36.80, lng: -121.95},
	{name: "Puget Sound", lat: 47.60, lng: -122.45},
	{name: "Chesapeake Bay", lat: 37.55, lng: -76.15},
	{name: "Gulf of Mexico off Galveston", lat: 29.20, lng: -94.70},
	{name: "Baltic Sea off Gdansk", lat: 54.45, lng: 18.75},
	{name: "Manila Bay", lat: 14.55, lng: 120.85},
	{name: "Great Barrier Reef", lat: -18.30, lng: 147.70},
}

var descriptions = map[domain.PollutionType][]string{
	domain.PollutionPlastic: {
		"Floating bottles and bags collecting along the tide line",
		"Fragments of polystyrene packaging washing ashore",
		"Microplastic pellets visible in the wet sand",
	},
	domain.PollutionOil: {
		"Rainbow sheen spreading from a moored vessel",
		"Tar balls scattered along the beach after high tide",
		"Thick dark slick drifting toward the harbor mouth",
	},
	domain.PollutionSewage: {
		"Brown discharge from an outflow pipe near the jetty",
		"Strong odor and foam where the storm drain meets the surf",
	},
	domain.PollutionAbandoned: {
		"Ghost net tangled on the reef with trapped fish",
		"Abandoned crab pots and rope piled on the rocks",
	},
	domain.PollutionOther: {
		"Unidentified chemical drums floating offshore",
		"Large algal bloom discoloring the water for several hundred meters",
	},
}

var reporters = []string{"Ana", "Kai", "Maya", "Tomasz", "Lin", "Joao"}

func runSeed(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	n := fs.Int("n", 25, "number of reports to generate")
	seed := fs.Uint64("seed", 1, "random seed for reproducible output")
	outPath := fs.String("out", "", "write submissions to this JSON file instead of calling the API")
	date := fs.String("date", "2024-05-01", "latest observation date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	latest, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}

	submissions := generateSubmissions(*n, *seed, latest)
	for i, s := range submissions {
		if _, err := domain.ValidateCreate(s); err != nil {
			return fmt.Errorf("generated submission %d is invalid: %w", i, err)
		}
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", *outPath, err)
		}
		defer f.Close()
		if err := printJSON(f, submissions); err != nil {
			return fmt.Errorf("write %s: %w", *outPath, err)
		}
		fmt.Fprintf(out, "wrote %d submissions to %s\n", len(submissions), *outPath)
		return nil
	}

	for _, s := range submissions {
		report, err := c.Create(ctx, s)
		if err != nil {
			return fmt.Errorf("submit report: %w", err)
		}
		fmt.Fprintf(out, "created report %d (%s, %s)\n", report.ID, report.PollutionType, report.Severity)
	}
	return nil
}

// generateSubmissions builds n valid report submissions. The same seed always
// yields the same submissions.
func generateSubmissions(n int, seed uint64, latest time.Time) []map[string]any {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]map[string]any, 0, n)

	for range n {
		s := sites[rng.IntN(len(sites))]
		pt := domain.PollutionTypes[rng.IntN(len(domain.PollutionTypes))]
		descs := descriptions[pt]

		fields := map[string]any{
			domain.FieldLatitude:      round6(s.lat + (rng.Float64()-0.5)*0.2),
			domain.FieldLongitude:     round6(s.lng + (rng.Float64()-0.5)*0.2),
			domain.FieldPollutionType: string(pt),
			domain.FieldSeverity:      string(domain.Severities[rng.IntN(len(domain.Severities))]),
			domain.FieldDescription:   fmt.Sprintf("%s (%s)", descs[rng.IntN(len(descs))], s.name),
			domain.FieldDateObserved:  latest.AddDate(0, 0, -rng.IntN(30)).Format("2006-01-02"),
		}
		if rng.IntN(2) == 0 {
			fields[domain.FieldTimeObserved] = fmt.Sprintf("%02d:%02d", 6+rng.IntN(13), rng.IntN(60))
		}
		if rng.IntN(3) > 0 {
			name := reporters[rng.IntN(len(reporters))]
			fields[domain.FieldName] = name
			fields[domain.FieldEmail] = fmt.Sprintf("%s@example.org", strings.ToLower(name))
		}
		out = append(out, fields)
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
