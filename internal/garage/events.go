package garage

import (
	"github.com/go-kit/log/level"
)

type EventName string

const (
	EventAdd    EventName = "add"
	EventRemove EventName = "remove"
)

// Event is delivered to listeners after the index has been updated.
type Event struct {
	Name EventName
	Key  string
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Subscribe registers l for add and remove events and returns a function
// that removes it again.
func (g *Garage) Subscribe(l Listener) func() {
	g.subMu.Lock()
	defer g.subMu.Unlock()

	g.nextSubID++
	id := g.nextSubID
	g.subs = append(g.subs, subscription{id: id, fn: l})

	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		for i, s := range g.subs {
			if s.id == id {
				g.subs = append(g.subs[:i:i], g.subs[i+1:]...)
				return
			}
		}
	}
}

func (g *Garage) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	g.subMu.Lock()
	subs := make([]subscription, len(g.subs))
	copy(subs, g.subs)
	g.subMu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			g.deliver(s.fn, ev)
		}
	}
}

// deliver isolates the caller from a misbehaving listener.
func (g *Garage) deliver(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			level.Warn(g.logger).Log("msg", "listener panicked", "event", ev.Name, "key", ev.Key, "panic", r)
		}
	}()
	fn(ev)
}
