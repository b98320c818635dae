// Package notify provides best-effort outbound notification delivery for
// complaint lifecycle events. Callers treat delivery as fire-and-forget:
// errors are for logging only and never abort the triggering operation.
package notify

// Notifier delivers a single plain-text message to one recipient.
type Notifier interface {
	Notify(to, subject, body string) error
}

// Noop stands in when no delivery channel is configured.
type Noop struct{}

func (Noop) Notify(to, subject, body string) error { return nil }
