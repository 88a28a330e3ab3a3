// Package notify delivers best-effort transfer notifications. Nothing in
// this package may affect the outcome of the financial commit that produced
// the notification: sends run on a decoupled worker pool, failures are logged
// and dropped, and delivery is at-most-once.
package notify

import (
	"context"
	"regexp"
)

// Message is channel-agnostic content. Email uses both fields, SMS only the
// body.
type Message struct {
	Subject string
	Body    string
}

// Channel sends one message to one recipient. Implementations are safe for
// concurrent use by the dispatcher workers.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient string, msg Message) error
}

// E.164, e.g. +12223334444.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidPhone reports whether a phone number is deliverable over SMS.
func ValidPhone(number string) bool {
	return phonePattern.MatchString(number)
}
