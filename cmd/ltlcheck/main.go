// ltlcheck - on-the-fly emptiness checker for a Kripke structure x Büchi
// automaton product.
//
// This front end is deliberately thin (§1 lists CLI front ends, LTL
// parsers/translators, and the real model back-end as out-of-scope
// external collaborators): it loads a JSON fixture describing both
// sides of the product (internal/fixture) and wires it into the driver
// (C13). It is not the dynamically-loaded C-ABI back-end loader or an
// LTL-to-automaton translator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/driver"
	"github.com/smilemakc/ltlcheck/internal/fixture"
	"github.com/smilemakc/ltlcheck/internal/logger"
	"github.com/smilemakc/ltlcheck/internal/observer"
	"github.com/smilemakc/ltlcheck/internal/stats"
)

const (
	version = "0.1.0"
	usage   = `ltlcheck - on-the-fly emptiness checker

USAGE:
    ltlcheck check -fixture <file> [options]
    ltlcheck version
    ltlcheck help

CHECK OPTIONS:
    -fixture <file>     JSON document describing the Kripke model and
                        property automaton (required)
    -workers <n>        Worker count, overrides LTLCHECK_WORKERS (default: 1)
    -engine <name>      tarjan, dijkstra, or mixed, overrides LTLCHECK_ENGINE
    -policy <name>      decomposed, full-tarjan, full-dijkstra, mixed,
                        reachability, or weak-dfs; overrides LTLCHECK_POLICY
    -csv                Print the verdict as the §6 CSV record instead of
                        a one-line summary
    -timeout <duration> Abort the check after this long (default: 0, none)

ENVIRONMENT VARIABLES:
    LTLCHECK_WORKERS, LTLCHECK_COMPRESS, LTLCHECK_DEAD, LTLCHECK_DEAD_AP,
    LTLCHECK_ROOT_STACK, LTLCHECK_DEAD_STORE, LTLCHECK_ENGINE,
    LTLCHECK_POLICY, LTLCHECK_SWARM, LTLCHECK_SWARM_SEED
`
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		runCheck(os.Args[2:])
	case "version":
		fmt.Printf("ltlcheck v%s\n", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fixturePath := fs.String("fixture", "", "JSON fixture file (required)")
	workers := fs.Int("workers", 0, "worker count override, 0 keeps the configured default")
	engine := fs.String("engine", "", "sequential engine override")
	policy := fs.String("policy", "", "global policy override")
	asCSV := fs.Bool("csv", false, "print the §6 CSV record instead of a summary line")
	timeout := fs.Duration("timeout", 0, "abort the check after this long")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -fixture is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *engine != "" {
		cfg.Engine = config.SequentialEngine(*engine)
	}
	if *policy != "" {
		cfg.GlobalPolicy = config.Policy(*policy)
	}

	doc, err := fixture.Load(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	auto, err := doc.Automaton()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	obs := observer.NewObserverManager()
	if err := obs.Register(loggingObserver{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec, err := driver.Run(ctx, doc.Backend(), auto, cfg, obs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asCSV {
		csv, err := rec.CSVRows()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(csv)
	} else {
		fmt.Printf("verdict: %s  wall_ms=%d  states=%d\n", rec.Verdict, rec.WallMs, rec.States)
	}

	if rec.Verdict == stats.VerdictViolated {
		os.Exit(1)
	}
}

// loggingObserver relays §6 lifecycle events through the structured
// logger, the way a CLI's default observer would.
type loggingObserver struct{}

func (loggingObserver) Name() string { return "cli-logger" }

func (loggingObserver) Filter() observer.EventFilter { return nil }

func (loggingObserver) OnEvent(ctx context.Context, event observer.Event) error {
	if event.Type == observer.EventTypeCheckFailed {
		logger.Error("check event", "type", event.Type, "run_id", event.RunID, "error", event.Error)
		return nil
	}
	logger.Info("check event", "type", event.Type, "run_id", event.RunID, "status", event.Status)
	return nil
}
