package nipca

import "sync"

// ShutdownNotifier broadcasts process termination to every registered
// callback exactly once.
type ShutdownNotifier struct {
	mu        sync.Mutex
	next      uint64
	callbacks map[uint64]func()
	notified  bool
}

// NewShutdownNotifier returns a notifier with no registrations.
func NewShutdownNotifier() *ShutdownNotifier {
	return &ShutdownNotifier{callbacks: make(map[uint64]func())}
}

// Register adds fn and returns a function that removes it again. If Notify
// has already fired, fn runs immediately.
func (n *ShutdownNotifier) Register(fn func()) (deregister func()) {
	n.mu.Lock()
	if n.notified {
		n.mu.Unlock()
		fn()
		return func() {}
	}

	id := n.next
	n.next++
	n.callbacks[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.callbacks, id)
		n.mu.Unlock()
	}
}

// Notify runs every registered callback. Only the first call has an effect.
func (n *ShutdownNotifier) Notify() {
	n.mu.Lock()
	if n.notified {
		n.mu.Unlock()
		return
	}
	n.notified = true
	callbacks := n.callbacks
	n.callbacks = make(map[uint64]func())
	n.mu.Unlock()

	var wg sync.WaitGroup
	for _, fn := range callbacks {
		wg.Add(1)
		go func(fn func()) {
			defer wg.Done()
			fn()
		}(fn)
	}
	wg.Wait()
}

// Notified reports whether Notify has fired.
func (n *ShutdownNotifier) Notified() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notified
}
