package ui

import (
	"sync"
	"time"
)

type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "success"
}

type Notification struct {
	ID      uint64
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier holds transient feedback. Publishing never blocks: when the events
// buffer is full the event is dropped, but the notification stays in Active
// until it is dismissed.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID uint64
	active []Notification
	events chan Notification
}

func NewNotifier(ttl time.Duration, buffer int) *Notifier {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Notifier{
		ttl:    ttl,
		events: make(chan Notification, buffer),
	}
}

func (n *Notifier) Success(message string) Notification {
	return n.publish(KindSuccess, message)
}

func (n *Notifier) Error(message string) Notification {
	return n.publish(KindError, message)
}

func (n *Notifier) Events() <-chan Notification {
	return n.events
}

func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.active))
	copy(out, n.active)
	return out
}

func (n *Notifier) Dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, note := range n.active {
		if note.ID == id {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return
		}
	}
}

func (n *Notifier) publish(kind Kind, message string) Notification {
	n.mu.Lock()
	n.nextID++
	note := Notification{
		ID:      n.nextID,
		Kind:    kind,
		Message: message,
		At:      time.Now(),
	}
	n.active = append(n.active, note)
	n.mu.Unlock()

	time.AfterFunc(n.ttl, func() { n.Dismiss(note.ID) })

	select {
	case n.events <- note:
	default:
	}
	return note
}
