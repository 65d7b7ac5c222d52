package monitor

import "sync"

// Notifier is an in-process Source. Notify invokes every registered
// callback synchronously, in registration order.
type Notifier struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
	ids  []int
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{fns: make(map[int]func())}
}

// Register adds fn and returns a function removing it.
func (n *Notifier) Register(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.fns[id] = fn
	n.ids = append(n.ids, id)
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.fns, id)
	}
}

// Notify delivers one change notification.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.fns))
	for _, id := range n.ids {
		if fn, ok := n.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered callbacks.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fns)
}
