package colour

import (
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/markset"
)

// NewRootStack builds the root stack encoding selected by mode.
func NewRootStack(mode config.RootStackMode) RootStack {
	if mode == config.RootStackCompressed {
		return NewCompressedRootStack()
	}
	return NewDenseRootStack()
}

// RootStack is the Dijkstra engine's (C8) root stack: the Design Notes'
// two semantically equivalent encodings (dense, compressed) behind one
// interface so the engine can be built against either per config
// (RootStackMode).
type RootStack interface {
	// PushTrivial records a fresh trivial (singleton) root at DFS
	// position pos, carrying the mark-set of the tree edge that reached
	// it (empty for the initial state).
	PushTrivial(pos int, entryMarks markset.Set)
	// PushNonTrivial pushes a non-trivial root spanning down to rootPos,
	// carrying marks, where topPos was the live-stack position at the
	// time of the merge that created it.
	PushNonTrivial(rootPos int, marks markset.Set, topPos int)
	// TopRootPosition returns the DFS position of the current top root —
	// the one a merge or pop against the live DFS top addresses.
	TopRootPosition() int
	// TopMarks returns the mark-set of the current top root.
	TopMarks() markset.Set
	// SetTopMarks replaces the current top root's mark-set.
	SetTopMarks(marks markset.Set)
	// Pop drops the top entry; in the compressed variant, a run of
	// length >= 2 shrinks by one instead of disappearing.
	Pop()
	// Len reports the number of entries on the stack (frames for dense,
	// runs for compressed — so for the compressed encoding it is not the
	// number of live roots).
	Len() int
	// Empty reports whether the stack holds no roots at all.
	Empty() bool
}

// frame is one dense root-stack entry: a single SCC root.
type frame struct {
	pos   int
	marks markset.Set
}

// DenseRootStack stores one frame per SCC root, including trivial
// singletons — simplest to reason about, at the cost of one frame per
// state even when long runs of trivial roots are pushed back-to-back.
type DenseRootStack struct {
	frames []frame
}

// NewDenseRootStack builds an empty dense root stack.
func NewDenseRootStack() *DenseRootStack {
	return &DenseRootStack{}
}

func (s *DenseRootStack) PushTrivial(pos int, entryMarks markset.Set) {
	s.frames = append(s.frames, frame{pos: pos, marks: entryMarks})
}

func (s *DenseRootStack) PushNonTrivial(rootPos int, marks markset.Set, _ int) {
	s.frames = append(s.frames, frame{pos: rootPos, marks: marks})
}

func (s *DenseRootStack) TopRootPosition() int {
	return s.frames[len(s.frames)-1].pos
}

func (s *DenseRootStack) TopMarks() markset.Set {
	return s.frames[len(s.frames)-1].marks
}

func (s *DenseRootStack) SetTopMarks(marks markset.Set) {
	s.frames[len(s.frames)-1].marks = marks
}

func (s *DenseRootStack) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *DenseRootStack) Len() int { return len(s.frames) }

func (s *DenseRootStack) Empty() bool { return len(s.frames) == 0 }

// run is one compressed root-stack entry: either a range [lo, hi] of
// consecutive trivial singleton roots (a range longer than one always has
// empty marks; a length-1 trivial run may carry its root's marks), or a
// single non-trivial root carrying an accumulated mark-set.
type run struct {
	lo, hi  int
	trivial bool
	marks   markset.Set
}

// CompressedRootStack merges consecutive trivial pushes into a single
// run-length entry, so a long stretch of singleton roots (the common case
// on a DFS tree with few back-edges) costs one entry instead of one per
// state.
type CompressedRootStack struct {
	runs []run
}

// NewCompressedRootStack builds an empty compressed root stack.
func NewCompressedRootStack() *CompressedRootStack {
	return &CompressedRootStack{}
}

// PushTrivial extends the top run iff it is itself a trivial run ending
// immediately below pos AND both the run's and this push's marks are
// empty — a trivial push carrying a nonzero entry mark (the tree edge it
// arrived on bears an acceptance mark) always starts a fresh length-1 run,
// so that mark is never silently absorbed into a neighbouring run's shared
// mark-set.
func (s *CompressedRootStack) PushTrivial(pos int, entryMarks markset.Set) {
	if n := len(s.runs); n > 0 && s.runs[n-1].trivial && s.runs[n-1].hi == pos-1 &&
		s.runs[n-1].marks.IsEmpty() && entryMarks.IsEmpty() {
		s.runs[n-1].hi = pos
		return
	}
	s.runs = append(s.runs, run{lo: pos, hi: pos, trivial: true, marks: entryMarks})
}

func (s *CompressedRootStack) PushNonTrivial(rootPos int, marks markset.Set, topPos int) {
	s.runs = append(s.runs, run{lo: rootPos, hi: topPos, trivial: false, marks: marks})
}

// TopRootPosition returns hi for a trivial run: such a run packs several
// still-independent singleton roots, and the "top" one — the one a pop or
// merge against the current DFS top must address — is the most recently
// pushed, at the high end of the range. A non-trivial run is a single
// merged root whose own position is lo; hi there is only bookkeeping for
// how far up the live stack it currently reaches.
func (s *CompressedRootStack) TopRootPosition() int {
	top := &s.runs[len(s.runs)-1]
	if top.trivial {
		return top.hi
	}
	return top.lo
}

func (s *CompressedRootStack) TopMarks() markset.Set {
	return s.runs[len(s.runs)-1].marks
}

// SetTopMarks addresses only the top root: on a trivial run longer than
// one, a non-empty mark-set splits the top position off into its own
// length-1 run, so the lower roots packed in the range keep empty marks.
func (s *CompressedRootStack) SetTopMarks(marks markset.Set) {
	top := &s.runs[len(s.runs)-1]
	if top.trivial && top.hi > top.lo && !marks.IsEmpty() {
		top.hi--
		s.runs = append(s.runs, run{lo: top.hi + 1, hi: top.hi + 1, trivial: true, marks: marks})
		return
	}
	top.marks = marks
}

// Pop drops the top entry; a trivial run of length >= 2 shrinks by one
// (dropping its highest position) instead of disappearing outright, per
// §4.4.
func (s *CompressedRootStack) Pop() {
	n := len(s.runs)
	top := &s.runs[n-1]
	if top.trivial && top.hi > top.lo {
		top.hi--
		return
	}
	s.runs = s.runs[:n-1]
}

func (s *CompressedRootStack) Len() int { return len(s.runs) }

func (s *CompressedRootStack) Empty() bool { return len(s.runs) == 0 }
