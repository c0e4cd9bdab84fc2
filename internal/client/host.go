package client

// Capability reports whether an optional host feature can be used. Absence is
// tolerated silently; it is never an error.
type Capability int

const (
	Unavailable Capability = iota
	Available
)

// Host exposes the connectivity state and background-execution facilities of
// the platform the client runs on. All capability questions go through this
// one interface so the dispatcher can be tested without a real host.
type Host interface {
	// Online reports the host's current connectivity belief.
	Online() bool
	// BackgroundSync reports whether best-effort background wake-ups exist.
	BackgroundSync() Capability
	// RequestBackgroundSync asks the host to wake the client later to flush
	// pending work. The wake-up is opportunistic and may never fire.
	RequestBackgroundSync(tag string) error
}
