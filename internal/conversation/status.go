package conversation

// Status is the controller's turn status.
type Status int

const (
	StatusReady Status = iota
	StatusProcessing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusProcessing:
		return "processing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Observer is notified of every status transition.
type Observer func(from, to Status)

// Observe registers fn for status transitions. Observers run synchronously
// on the goroutine that runs the turn.
func (c *Controller) Observe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Recover moves the controller from error back to ready. The host calls it
// after its cool-down; it does nothing in any other status.
func (c *Controller) Recover() {
	c.transition(StatusReady, func(from Status) bool { return from == StatusError })
}

func (c *Controller) setStatus(to Status) {
	c.transition(to, nil)
}

// transition moves to the given status if allow (when set) accepts the
// current one, then notifies observers outside the lock.
func (c *Controller) transition(to Status, allow func(from Status) bool) {
	c.mu.Lock()
	from := c.status
	if from == to || (allow != nil && !allow(from)) {
		c.mu.Unlock()
		return
	}
	c.status = to
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(from, to)
	}
}
