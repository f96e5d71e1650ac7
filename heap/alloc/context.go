package alloc

// Context is the per-execution-context slot that owns the active
// Manager. The surrounding runtime creates one Context per logical
// request (or thread of execution) and attaches a Manager for the
// request's lifetime; concurrent requests each get their own Context
// and Manager, with no shared mutable state between them.
//
// Queries are nil-safe: with no Manager attached they report the idle
// state instead of faulting, so collector-side probes can run at any
// point in the request lifecycle.
type Context struct {
	mgr *Manager
}

// Attach installs m as the context's active Manager.
func (c *Context) Attach(m *Manager) {
	c.mgr = m
}

// Detach clears the active Manager, typically after Reset at request
// teardown.
func (c *Context) Detach() {
	c.mgr = nil
}

// Active returns the attached Manager, or nil.
func (c *Context) Active() *Manager {
	if c == nil {
		return nil
	}
	return c.mgr
}

// Sweeping reports whether the active Manager is mid-sweep. False when
// no Manager is attached.
func (c *Context) Sweeping() bool {
	return c != nil && c.mgr != nil && c.mgr.sweeping
}

// Exiting reports whether the active Manager's request is tearing
// down. False when no Manager is attached.
func (c *Context) Exiting() bool {
	return c != nil && c.mgr != nil && c.mgr.exiting
}

// SetExiting marks the active Manager's request as tearing down. No-op
// when no Manager is attached.
func (c *Context) SetExiting() {
	if c != nil && c.mgr != nil {
		c.mgr.SetExiting()
	}
}
