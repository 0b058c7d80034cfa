package game

// EventKind names a session change.
type EventKind string

const (
	EventInstalled     EventKind = "installed"
	EventAccepted      EventKind = "accepted"
	EventRejected      EventKind = "rejected"
	EventLevelPassed   EventKind = "level_passed"
	EventModeChosen    EventKind = "mode_chosen"
	EventAllFound      EventKind = "all_found"
	EventSurrendered   EventKind = "surrendered"
	EventLevelFinished EventKind = "level_finished" // emitted for the outgoing level before NewLevel
)

// Event is delivered to listeners after a change has been committed.
type Event struct {
	Kind     EventKind
	Word     string
	Points   int
	Reason   error
	Snapshot Snapshot
}

// Listener observes session changes. Implementations must not call back into the
// session that notified them.
type Listener interface {
	SessionChanged(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// SessionChanged calls f(e).
func (f ListenerFunc) SessionChanged(e Event) { f(e) }

type listeners []Listener

func (ls listeners) notify(e Event) {
	for _, l := range ls {
		l.SessionChanged(e)
	}
}
