package session

import "sync"

// NavigateEvent tells the client to move to Path.
type NavigateEvent struct {
	Path    string `json:"path"`
	Replace bool   `json:"replace"`
}

// Navigator is the server-side view of the client's location. The client
// reports where it is; Replace and Push record the new location and hand
// the event to the sink (usually the websocket hub).
type Navigator struct {
	mu       sync.Mutex
	location string
	last     *NavigateEvent
	count    int
	sink     func(NavigateEvent)
}

func NewNavigator(sink func(NavigateEvent)) *Navigator {
	return &Navigator{sink: sink}
}

func (n *Navigator) CurrentLocation() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// SetLocation records a location reported by the client. It is not a
// navigation and emits nothing.
func (n *Navigator) SetLocation(path string) {
	n.mu.Lock()
	n.location = path
	n.mu.Unlock()
}

func (n *Navigator) Replace(path string) {
	n.navigate(NavigateEvent{Path: path, Replace: true})
}

func (n *Navigator) Push(path string) {
	n.navigate(NavigateEvent{Path: path})
}

func (n *Navigator) navigate(ev NavigateEvent) {
	n.mu.Lock()
	n.location = ev.Path
	n.last = &ev
	n.count++
	sink := n.sink
	n.mu.Unlock()

	if sink != nil {
		sink(ev)
	}
}

// Last returns the most recent navigation, if any.
func (n *Navigator) Last() (NavigateEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return NavigateEvent{}, false
	}
	return *n.last, true
}

// Count is the number of navigations performed.
func (n *Navigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
