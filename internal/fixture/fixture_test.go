package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/ltlcheck/internal/model"
)

const sampleDoc = `{
  "model": {
    "initial": "s0",
    "edges": [
      {"from": "s0", "label": "true", "to": "s1"},
      {"from": "s1", "label": "true", "to": "s1"}
    ]
  },
  "automaton": {
    "num_marks": 1,
    "initial": 0,
    "states": [{"id": 0}, {"id": 1}],
    "edges": [
      {"from": 0, "label": "true", "marks": [], "to": 1},
      {"from": 1, "label": "true", "marks": [0], "to": 1}
    ]
  }
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesModelAndAutomaton(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s0", doc.Model.Initial)
	assert.Len(t, doc.Model.Edges, 2)
	assert.Equal(t, 1, doc.AutomatonDoc.NumMarks)
	assert.Len(t, doc.AutomatonDoc.States, 2)
}

func TestBackendEnumeratesSuccessorsFromInitialState(t *testing.T) {
	doc, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	backend := doc.Backend()
	init, err := backend.InitialState()
	require.NoError(t, err)
	assert.Equal(t, "s0", string(init.Bytes()))

	succs, err := backend.EnumerateSuccessors(init)
	require.NoError(t, err)
	require.Len(t, succs, 1)
	assert.Equal(t, "s1", string(succs[0].Dest))
}

func TestBackendReportsNoSuccessorsForUnknownState(t *testing.T) {
	doc, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	backend := doc.Backend()
	succs, err := backend.EnumerateSuccessors(model.NewState([]byte("does-not-exist")))
	require.NoError(t, err)
	assert.Empty(t, succs)
}

func TestAutomatonBuildsExplicitAutomatonWithMarks(t *testing.T) {
	doc, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	a, err := doc.Automaton()
	require.NoError(t, err)
	assert.Equal(t, 0, a.Initial())
	assert.Len(t, a.States(), 2)

	edges, err := a.Successors(1)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Marks.IsEmpty())
}

func TestLoadRejectsUnparseableGuardLabel(t *testing.T) {
	bad := `{
  "model": {"initial": "s0", "edges": []},
  "automaton": {
    "num_marks": 1, "initial": 0,
    "states": [{"id": 0}],
    "edges": [{"from": 0, "label": "(((", "marks": [], "to": 0}]
  }
}`
	doc, err := Load(writeDoc(t, bad))
	require.NoError(t, err)

	_, err = doc.Automaton()
	assert.Error(t, err)
}
