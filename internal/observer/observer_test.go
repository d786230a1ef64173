package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypeFilterAllowsOnlyListedTypes(t *testing.T) {
	f := NewEventTypeFilter(EventTypeSCCClosed)
	assert.True(t, f.ShouldNotify(Event{Type: EventTypeSCCClosed}))
	assert.False(t, f.ShouldNotify(Event{Type: EventTypeWorkerStarted}))
}

func TestEventTypeFilterEmptyMeansAllowAll(t *testing.T) {
	f := NewEventTypeFilter()
	assert.Nil(t, f)
}

func TestRunIDFilterScopesToOneRun(t *testing.T) {
	f := NewRunIDFilter("run-1")
	assert.True(t, f.ShouldNotify(Event{RunID: "run-1"}))
	assert.False(t, f.ShouldNotify(Event{RunID: "run-2"}))
}

func TestWorkerIDFilterPassesNonWorkerEvents(t *testing.T) {
	f := NewWorkerIDFilter(1, 2)
	assert.True(t, f.ShouldNotify(Event{Type: EventTypeCheckStarted}))

	id3, id1 := 3, 1
	assert.False(t, f.ShouldNotify(Event{Type: EventTypeWorkerStarted, WorkerID: &id3}))
	assert.True(t, f.ShouldNotify(Event{Type: EventTypeWorkerStarted, WorkerID: &id1}))
}

func TestCompoundEventFilterRequiresAllSubFilters(t *testing.T) {
	combined := NewCompoundEventFilter(
		NewEventTypeFilter(EventTypeSCCClosed),
		NewRunIDFilter("run-1"),
	)
	assert.True(t, combined.ShouldNotify(Event{Type: EventTypeSCCClosed, RunID: "run-1"}))
	assert.False(t, combined.ShouldNotify(Event{Type: EventTypeSCCClosed, RunID: "run-2"}))
	assert.False(t, combined.ShouldNotify(Event{Type: EventTypeWorkerStarted, RunID: "run-1"}))
}

func TestCompoundEventFilterIgnoresNilSubFilters(t *testing.T) {
	combined := NewCompoundEventFilter(nil, NewRunIDFilter("run-1"))
	assert.True(t, combined.ShouldNotify(Event{RunID: "run-1"}))
}

func TestCompoundEventFilterNoFiltersMeansAllowAll(t *testing.T) {
	assert.Nil(t, NewCompoundEventFilter(nil, nil))
}
