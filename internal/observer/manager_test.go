package observer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	filter EventFilter

	mu     sync.Mutex
	events []Event
	fail   bool
	panics bool
}

func (o *recordingObserver) Name() string       { return o.name }
func (o *recordingObserver) Filter() EventFilter { return o.filter }

func (o *recordingObserver) OnEvent(ctx context.Context, event Event) error {
	if o.panics {
		panic("observer panic")
	}
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
	if o.fail {
		return errors.New("observer failed")
	}
	return nil
}

func (o *recordingObserver) seen() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition never became true")
}

func TestObserverManagerRegisterRejectsDuplicateNames(t *testing.T) {
	m := NewObserverManager()
	require.NoError(t, m.Register(&recordingObserver{name: "a"}))
	err := m.Register(&recordingObserver{name: "a"})
	assert.Error(t, err)
	assert.Equal(t, 1, m.Count())
}

func TestObserverManagerNotifyDeliversToAllObservers(t *testing.T) {
	m := NewObserverManager()
	obs1 := &recordingObserver{name: "one"}
	obs2 := &recordingObserver{name: "two"}
	require.NoError(t, m.Register(obs1))
	require.NoError(t, m.Register(obs2))

	m.Notify(context.Background(), Event{Type: EventTypeCheckStarted, RunID: "r1"})

	waitFor(t, func() bool { return len(obs1.seen()) == 1 && len(obs2.seen()) == 1 })
	assert.Equal(t, EventTypeCheckStarted, obs1.seen()[0].Type)
}

func TestObserverManagerNotifyHonoursFilter(t *testing.T) {
	m := NewObserverManager()
	obs := &recordingObserver{name: "filtered", filter: NewEventTypeFilter(EventTypeSCCClosed)}
	require.NoError(t, m.Register(obs))

	m.Notify(context.Background(), Event{Type: EventTypeCheckStarted})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, obs.seen())

	m.Notify(context.Background(), Event{Type: EventTypeSCCClosed})
	waitFor(t, func() bool { return len(obs.seen()) == 1 })
}

func TestObserverManagerNotifySurvivesObserverPanic(t *testing.T) {
	m := NewObserverManager()
	panicking := &recordingObserver{name: "panicking", panics: true}
	sane := &recordingObserver{name: "sane"}
	require.NoError(t, m.Register(panicking))
	require.NoError(t, m.Register(sane))

	require.NotPanics(t, func() {
		m.Notify(context.Background(), Event{Type: EventTypeCheckFailed})
	})
	waitFor(t, func() bool { return len(sane.seen()) == 1 })
}

func TestObserverManagerUnregisterRemovesObserver(t *testing.T) {
	m := NewObserverManager()
	require.NoError(t, m.Register(&recordingObserver{name: "a"}))
	require.NoError(t, m.Unregister("a"))
	assert.Equal(t, 0, m.Count())
	assert.Error(t, m.Unregister("a"))
}
