package websocket

// Semaphore caps the number of concurrently admitted voice sockets. A slot
// is claimed before the HTTP upgrade completes and returned when the socket
// closes.
type Semaphore struct {
	slots chan struct{}
}

func NewSemaphore(maxConnections int) *Semaphore {
	return &Semaphore{
		slots: make(chan struct{}, maxConnections),
	}
}

// Acquire claims a slot without blocking. Callers that get false must not
// call Release.
func (s *Semaphore) Acquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release is a no-op on an empty semaphore, so double releases on teardown
// paths are harmless.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
	}
}

func (s *Semaphore) InUse() int {
	return len(s.slots)
}
