package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		Verdict:       VerdictViolated,
		WallMs:        42,
		UserMs:        40,
		SysMs:         2,
		States:        10,
		Transitions:   15,
		MaxDFSSize:    4,
		MaxLiveSize:   6,
		MaxRootStack:  3,
		DeadStoreSize: 4,
		Updates:       7,
		RootsPopped:   2,
		TrivialSCCs:   1,
		PerWorker: []WorkerStat{
			{Verdict: VerdictViolated, Ms: 10, States: 5, Inserted: 5, CSVTag: "w0"},
			{Verdict: VerdictVerified, Ms: 8, States: 5, Inserted: 4, CSVTag: "w1"},
		},
	}
}

func TestCSVRowsEmitsOneLinePerWorkerPlusSummary(t *testing.T) {
	r := sampleRecord()
	out, err := r.CSVRows()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// header + 2 workers + 1 summary
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "row")
	assert.Contains(t, lines[1], "worker-0")
	assert.Contains(t, lines[2], "worker-1")
	assert.Contains(t, lines[3], "summary")
	assert.Contains(t, lines[3], "violated")
}

func TestCSVRowsQuotesFieldsContainingCommas(t *testing.T) {
	r := sampleRecord()
	r.PerWorker[0].CSVTag = "tag,with,commas"
	out, err := r.CSVRows()
	require.NoError(t, err)
	assert.Contains(t, out, `"tag,with,commas"`)
}

func TestCSVRowsHasNoNewlineWithinAField(t *testing.T) {
	r := sampleRecord()
	out, err := r.CSVRows()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
}

func TestCheckBoundedMemoryInvariantAcceptsConsistentCounters(t *testing.T) {
	r := sampleRecord()
	liveSize := r.States - r.DeadStoreSize
	assert.NoError(t, r.CheckBoundedMemoryInvariant(liveSize))
}

func TestCheckBoundedMemoryInvariantRejectsRootStackOverflow(t *testing.T) {
	r := sampleRecord()
	r.MaxRootStack = r.MaxLiveSize + 1
	err := r.CheckBoundedMemoryInvariant(r.States - r.DeadStoreSize)
	assert.Error(t, err)
}

func TestCheckBoundedMemoryInvariantRejectsLiveSizeMismatch(t *testing.T) {
	r := sampleRecord()
	err := r.CheckBoundedMemoryInvariant(r.States) // should be States - DeadStoreSize
	assert.Error(t, err)
}

func TestCheckBoundedMemoryInvariantRejectsDFSSizeOverflow(t *testing.T) {
	r := sampleRecord()
	r.MaxDFSSize = r.MaxLiveSize + 1
	err := r.CheckBoundedMemoryInvariant(r.States - r.DeadStoreSize)
	assert.Error(t, err)
}
