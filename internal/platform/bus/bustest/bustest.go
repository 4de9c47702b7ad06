// Package bustest provides an in-memory Publisher for service tests
package bustest

import (
	"context"
	"encoding/json"
	"sync"

	"datacompliance/internal/platform/bus"
)

// Recorder captures published messages. Set Err to make every publish fail,
// or FailTopic to fail only one topic
type Recorder struct {
	mu        sync.Mutex
	Err       error
	FailTopic string
	Sent      []bus.Message
}

var _ bus.Publisher = (*Recorder)(nil)

// Publish records the encoded message
func (r *Recorder) Publish(_ context.Context, topic, key string, headers map[string]string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil && (r.FailTopic == "" || r.FailTopic == topic) {
		return r.Err
	}
	b, err := bus.Encode(v)
	if err != nil {
		return err
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	r.Sent = append(r.Sent, bus.Message{Topic: topic, Key: key, Value: b, Headers: h})
	return nil
}

// On returns the messages sent to topic
func (r *Recorder) On(topic string) []bus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bus.Message
	for _, m := range r.Sent {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Reset drops everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = nil
}

// DecodeAs unmarshals a recorded message body into T
func DecodeAs[T any](m bus.Message) (T, error) {
	var v T
	err := json.Unmarshal(m.Value, &v)
	return v, err
}
