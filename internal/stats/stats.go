// Package stats implements the §6 verdict/statistics record the driver
// (C13) returns from a check: the boolean verdict, timing, the bounded
// memory-peak counters T6 constrains, and one row per worker. Grounded
// on spec §6's structured-record shape directly; the CSV rendering
// follows the pack's only encoding/csv usage,
// smilemakc-mbflow/go/pkg/executor/builtin/csv_to_json.go (there a
// reader driving CSV-to-JSON; here a writer driving the reverse
// direction; encoding/csv quotes a field only when it needs quoting).
package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Verdict is the outcome of a check. VerdictError names the
// back-end-runtime-error case of §7, but driver.Run never sets it: every
// error, including a back-end runtime fault, is returned as a driver.Error
// together with an empty Record.
type Verdict string

const (
	VerdictViolated Verdict = "violated"
	VerdictVerified Verdict = "verified"
	VerdictError    Verdict = "error"
)

// WorkerStat is one worker's row of the verdict output record.
type WorkerStat struct {
	Verdict  Verdict
	Ms       int64
	States   int
	Inserted int
	CSVTag   string
}

// Record is the full verdict/statistics record of §6.
type Record struct {
	Verdict Verdict

	WallMs int64
	UserMs int64
	SysMs  int64

	States       int
	Transitions  int
	MaxDFSSize   int
	MaxLiveSize  int
	MaxRootStack int

	DeadStoreSize int
	Updates       int
	RootsPopped   int
	TrivialSCCs   int

	PerWorker []WorkerStat
}

// CSVRows renders the record as §6 requires: one line per worker plus a
// trailing summary line. Fields are written by encoding/csv, which quotes a
// field only if it contains a comma, a double quote or a line break; other
// string fields are written without quotes. The header row names every
// column so the summary row's
// worker-only columns (verdict, ms, states, inserted, csv_tag) read as
// empty rather than misaligned.
func (r Record) CSVRows() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"row", "verdict", "ms", "states", "inserted", "csv_tag",
		"wall_ms", "user_ms", "sys_ms",
		"transitions", "max_dfs_size", "max_live_size", "max_root_stack",
		"dead_store_size", "updates", "roots_popped", "trivial_sccs",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("stats: writing csv header: %w", err)
	}

	for i, ws := range r.PerWorker {
		row := []string{
			fmt.Sprintf("worker-%d", i),
			string(ws.Verdict),
			fmt.Sprintf("%d", ws.Ms),
			fmt.Sprintf("%d", ws.States),
			fmt.Sprintf("%d", ws.Inserted),
			ws.CSVTag,
			"", "", "",
			"", "", "", "",
			"", "", "", "",
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("stats: writing worker %d row: %w", i, err)
		}
	}

	summary := []string{
		"summary",
		string(r.Verdict),
		"",
		fmt.Sprintf("%d", r.States),
		"", "",
		fmt.Sprintf("%d", r.WallMs),
		fmt.Sprintf("%d", r.UserMs),
		fmt.Sprintf("%d", r.SysMs),
		fmt.Sprintf("%d", r.Transitions),
		fmt.Sprintf("%d", r.MaxDFSSize),
		fmt.Sprintf("%d", r.MaxLiveSize),
		fmt.Sprintf("%d", r.MaxRootStack),
		fmt.Sprintf("%d", r.DeadStoreSize),
		fmt.Sprintf("%d", r.Updates),
		fmt.Sprintf("%d", r.RootsPopped),
		fmt.Sprintf("%d", r.TrivialSCCs),
	}
	if err := w.Write(summary); err != nil {
		return "", fmt.Errorf("stats: writing summary row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("stats: flushing csv writer: %w", err)
	}
	return buf.String(), nil
}

// CheckBoundedMemoryInvariant verifies T6: max_root_stack <= max_live_size
// <= states; max_dfs_size <= max_live_size; dead_store_size + live_size ==
// states. liveSize is the caller's count of states still live (neither
// popped into Dead nor otherwise retired) at the moment of measurement.
// The driver does not call it; callers pass the count observed at run
// completion.
func (r Record) CheckBoundedMemoryInvariant(liveSize int) error {
	if r.MaxRootStack > r.MaxLiveSize {
		return fmt.Errorf("stats: max_root_stack %d exceeds max_live_size %d", r.MaxRootStack, r.MaxLiveSize)
	}
	if r.MaxLiveSize > r.States {
		return fmt.Errorf("stats: max_live_size %d exceeds states %d", r.MaxLiveSize, r.States)
	}
	if r.MaxDFSSize > r.MaxLiveSize {
		return fmt.Errorf("stats: max_dfs_size %d exceeds max_live_size %d", r.MaxDFSSize, r.MaxLiveSize)
	}
	if r.DeadStoreSize+liveSize != r.States {
		return fmt.Errorf("stats: dead_store_size %d + live_size %d != states %d", r.DeadStoreSize, liveSize, r.States)
	}
	return nil
}
