// Command reportctl is a command-line client for the pollution report API.
//
// Usage:
//
//	reportctl [-api http://localhost:8080] <command> [flags]
//
// Commands:
//
//	list                          print every report
//	get     -id N                 print one report
//	submit  -lat -lng -type ...   compose and submit a report
//	update  -id N -json '{...}'   apply a partial update
//	delete  -id N                 delete a report
//	locate  -lat -lng             reverse geocode a map point
//	seed    -n 25 [-out file]     generate sample reports and submit or save them
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/client"
	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				log.Printf("  %s: %s", fieldOrBody(v), v.Message)
			}
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("reportctl", flag.ContinueOnError)
	api := global.String("api", envOr("REPORTS_API_URL", "http://localhost:8080"), "report API base URL")
	timeout := global.Duration("timeout", 10*time.Second, "per-request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	c := client.New(*api)
	cmd, rest := global.Arg(0), global.Args()[1:]

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	switch cmd {
	case "list":
		reports, err := c.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, reports)
	case "get":
		return runGet(ctx, c, rest, out)
	case "submit":
		return runSubmit(ctx, c, rest, out)
	case "update":
		return runUpdate(ctx, c, rest, out)
	case "delete":
		return runDelete(ctx, c, rest, out)
	case "locate":
		return runLocate(ctx, c, rest, out)
	case "seed":
		return runSeed(ctx, c, rest, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runGet(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.Int64("id", 0, "report ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	report, err := c.Get(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(out, report)
}

func runSubmit(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "latitude of the observation")
	lng := fs.Float64("lng", 0, "longitude of the observation")
	pollutionType := fs.String("type", "", "pollution type: plastic, oil, sewage, abandoned, other")
	severity := fs.String("severity", "", "severity: low, moderate, high, critical")
	description := fs.String("description", "", "what was observed (10-1000 characters)")
	date := fs.String("date", "", "date observed, YYYY-MM-DD (default today)")
	clock := fs.String("time", "", "time observed, free text")
	name := fs.String("name", "", "reporter name")
	email := fs.String("email", "", "reporter email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft := client.NewDraft(nil)
	draft.SelectLocation(*lat, *lng)
	draft.Merge(map[string]any{
		domain.FieldPollutionType: *pollutionType,
		domain.FieldSeverity:      *severity,
		domain.FieldDescription:   *description,
		domain.FieldTimeObserved:  *clock,
		domain.FieldName:          *name,
		domain.FieldEmail:         *email,
	})
	if *date != "" {
		draft.Merge(map[string]any{domain.FieldDateObserved: *date})
	}

	report, err := draft.Submit(ctx, c)
	if err != nil {
		return err
	}
	return printJSON(out, report)
}

func runUpdate(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int64("id", 0, "report ID")
	body := fs.String("json", "", `fields to change, e.g. '{"severity":"high"}'`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(*body), &fields); err != nil {
		return fmt.Errorf("parse -json: %w", err)
	}
	report, err := c.Update(ctx, *id, fields)
	if err != nil {
		return err
	}
	return printJSON(out, report)
}

func runDelete(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Int64("id", 0, "report ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted report %d\n", *id)
	return nil
}

func runLocate(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}
	loc, err := c.ReverseGeocode(ctx, *lat, *lng)
	if err != nil {
		return err
	}
	return printJSON(out, loc)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fieldOrBody(v domain.Violation) string {
	if f := v.Field(); f != "" {
		return f
	}
	return "body"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
