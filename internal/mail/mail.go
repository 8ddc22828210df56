// Package mail delivers outbound messages through an SMTP relay.
package mail

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String renders the address for a header. The local part is quoted when it
// holds characters such as "," or "<", and non-ASCII display names are encoded.
func (a Address) String() string {
	return (&mail.Address{Name: strings.TrimSpace(a.Name), Address: a.Email}).String()
}

// envelope returns the addr-spec used in MAIL FROM and RCPT TO.
func (a Address) envelope() string {
	return strings.TrimSuffix(strings.TrimPrefix((&mail.Address{Address: a.Email}).String(), "<"), ">")
}

// Message is a single outbound email with plain-text and HTML alternatives.
type Message struct {
	// Tag labels the message kind for logs and metrics.
	Tag     string
	From    Address
	To      Address
	ReplyTo Address
	Subject string
	Text    string
	HTML    string
}

// ErrNoRecipient is returned when a message has no recipient address.
var ErrNoRecipient = errors.New("mail: recipient is required")

// Sender defines the contract for sending emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
