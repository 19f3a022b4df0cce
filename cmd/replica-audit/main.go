package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/internal/service"
	"github.com/noah-isme/sma-registrar-api/pkg/config"
	"github.com/noah-isme/sma-registrar-api/pkg/database"
	"github.com/noah-isme/sma-registrar-api/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run audits the replicas and returns the process exit code. Deferred
// cleanup finishes before the caller exits.
func run(args []string, stdout, stderr io.Writer) int {
	var (
		academicYear string
		asJSON       bool
		strict       bool
		timeout      time.Duration
	)

	fs := flag.NewFlagSet("replica-audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&academicYear, "ay", "", "Academic year to audit, e.g. AY2526 (default: every year)")
	fs.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	fs.BoolVar(&strict, "strict", false, "Also fail when the student-scoped copy is missing")
	fs.DurationVar(&timeout, "timeout", time.Minute, "Audit timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	backend, err := database.OpenStore(ctx, cfg, logr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open document store: %v\n", err)
		return 1
	}
	defer backend.Close()

	audit := service.NewReplicaAuditService(repository.NewEnrollmentRepository(backend.Store), logr)
	drifts, err := audit.Audit(ctx, academicYear)
	if err != nil {
		fmt.Fprintf(stderr, "audit failed: %v\n", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(drifts); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
	} else {
		printReport(stdout, drifts)
	}

	diffs, missing := countDrift(drifts)
	fmt.Fprintf(stderr, "Diverged: %d, Missing: %d\n", diffs, missing)
	return exitCode(diffs, missing, strict)
}

func exitCode(diffs, missing int, strict bool) int {
	if diffs > 0 || (strict && missing > 0) {
		return 1
	}
	return 0
}

func countDrift(drifts []service.ReplicaDrift) (diffs, missing int) {
	for _, d := range drifts {
		switch d.State {
		case service.DriftDiff:
			diffs++
		case service.DriftMissing:
			missing++
		}
	}
	return diffs, missing
}

func printReport(w io.Writer, drifts []service.ReplicaDrift) {
	fmt.Fprintln(w, "Replica Audit Report")
	fmt.Fprintln(w, "====================")
	for _, d := range drifts {
		fmt.Fprintf(w, "[%s] %s\n", d.State, d.TopLevel)
		if d.Subcollection != "" {
			fmt.Fprintf(w, "  Subcollection: %s\n", d.Subcollection)
		}
		if len(d.Fields) > 0 {
			fmt.Fprintf(w, "  Fields: %v\n", d.Fields)
		}
	}
}
