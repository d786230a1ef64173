// Package fixture loads a Kripke model and a property automaton from a
// single JSON document, for the CLI front end (cmd/ltlcheck). The model
// back-end ABI itself is out of scope (§1's "external collaborators"
// list: LTL parser/translators, model back-end, BDD library); this
// package is the thin stand-in the CLI needs so driver.Run has something
// concrete to check without a real dynamically-loaded back-end.
// Grounded on testutil/backend_stub.go's adjacency-list Handle shape,
// adapted from programmatic AddEdge calls to a JSON-decoded document, and
// on automaton.Explicit's AddState/AddEdge builder. Decoding uses
// github.com/goccy/go-json rather than encoding/json: it is already in
// the teacher's own dependency graph (backend/go.mod, pulled in
// indirectly) and is a drop-in replacement for the same
// Marshal/Unmarshal API, so this package promotes it to a direct import
// instead of reaching for the standard library.
package fixture

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/smilemakc/ltlcheck/internal/automaton"
	"github.com/smilemakc/ltlcheck/internal/guard"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/model"
)

// Document is the on-disk JSON shape: one Kripke model and one property
// automaton, both given as explicit adjacency lists.
type Document struct {
	Model        modelDoc     `json:"model"`
	AutomatonDoc automatonDoc `json:"automaton"`
}

type modelDoc struct {
	Initial string         `json:"initial"`
	Edges   []modelEdgeDoc `json:"edges"`
}

type modelEdgeDoc struct {
	From  string `json:"from"`
	Label string `json:"label"`
	To    string `json:"to"`
}

type automatonDoc struct {
	NumMarks int                 `json:"num_marks"`
	Initial  int                 `json:"initial"`
	States   []automatonStateDoc `json:"states"`
	Edges    []automatonEdgeDoc  `json:"edges"`
}

type automatonStateDoc struct {
	ID int `json:"id"`
}

type automatonEdgeDoc struct {
	From  int    `json:"from"`
	Label string `json:"label"`
	Marks []int  `json:"marks"`
	To    int    `json:"to"`
}

// Load reads and parses path into a Document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// Backend adapts a Document's model side into a model.Handle.
type Backend struct {
	initial string
	edges   map[string][]modelEdgeDoc
}

// Backend builds the model.Handle the document's Kripke structure
// describes.
func (d *Document) Backend() *Backend {
	b := &Backend{initial: d.Model.Initial, edges: map[string][]modelEdgeDoc{}}
	for _, e := range d.Model.Edges {
		b.edges[e.From] = append(b.edges[e.From], e)
	}
	return b
}

// InitialState implements model.Handle.
func (b *Backend) InitialState() (model.State, error) {
	return model.NewState([]byte(b.initial)), nil
}

// EnumerateSuccessors implements model.Handle.
func (b *Backend) EnumerateSuccessors(s model.State) ([]model.RawEdge, error) {
	name := string(s.Bytes())
	edges := b.edges[name]
	out := make([]model.RawEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, model.RawEdge{Label: e.Label, Dest: []byte(e.To)})
	}
	return out, nil
}

// Automaton builds the automaton.Explicit the document's property
// automaton describes.
func (d *Document) Automaton() (*automaton.Explicit, error) {
	a := automaton.NewExplicit(d.AutomatonDoc.Initial, d.AutomatonDoc.NumMarks)
	for _, st := range d.AutomatonDoc.States {
		a.AddState(automaton.State{ID: st.ID})
	}
	for _, e := range d.AutomatonDoc.Edges {
		g, err := guard.ParseLabel(e.Label)
		if err != nil {
			return nil, fmt.Errorf("fixture: automaton edge %d->%d: %w", e.From, e.To, err)
		}
		marks := markset.Empty()
		for _, m := range e.Marks {
			marks = marks.With(markset.Mark(m))
		}
		a.AddEdge(e.From, g, marks, e.To)
	}
	return a, nil
}
