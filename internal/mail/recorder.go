package mail

import (
	"context"
	"sync"
)

// Recorder is a test-friendly sender that records messages in memory.
type Recorder struct {
	mu     sync.Mutex
	outbox []Message
	// Fail returns the error for a message, or nil to accept it.
	Fail func(Message) error
	// Sent is signalled after every attempt when non-nil.
	Sent chan Message
}

// Send records the message and returns the configured failure, if any.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r == nil {
		return nil
	}
	var err error
	if r.Fail != nil {
		err = r.Fail(msg)
	}
	r.mu.Lock()
	r.outbox = append(r.outbox, msg)
	r.mu.Unlock()
	if r.Sent != nil {
		r.Sent <- msg
	}
	return err
}

// Outbox returns a copy of every message passed to Send.
func (r *Recorder) Outbox() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.outbox))
	copy(out, r.outbox)
	return out
}

// Tagged returns the recorded messages carrying tag.
func (r *Recorder) Tagged(tag string) []Message {
	var out []Message
	for _, msg := range r.Outbox() {
		if msg.Tag == tag {
			out = append(out, msg)
		}
	}
	return out
}

// NopSender implements Sender without performing any action.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(context.Context, Message) error { return nil }
