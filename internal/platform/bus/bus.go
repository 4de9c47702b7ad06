// Package bus carries engine events over Kafka with at-least-once delivery.
// Producers publish JSON payloads keyed for partition affinity; consumers commit
// an offset only after the handler succeeded or failed in a way redelivery
// cannot fix
package bus

import (
	"context"
	"encoding/json"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/net/http/bind"
)

// Header names carried on every message
const (
	HeaderEventType = "event-type"
	HeaderCheckKind = "check-kind"
	HeaderError     = "error"
	HeaderSource    = "source-topic"
)

// Message is one record read from or written to a topic
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Time      time.Time
}

// Header returns the named header or ""
func (m Message) Header(name string) string { return m.Headers[name] }

// Publisher publishes a JSON encoded value to topic
type Publisher interface {
	Publish(ctx context.Context, topic, key string, headers map[string]string, v any) error
}

// Handler processes one message. Returning nil or a terminal error commits
// the offset; any other error is retried
type Handler func(ctx context.Context, m Message) error

// Decode unmarshals and validates a message body
func Decode[T any](m Message) (T, error) {
	return bind.Decode[T](m.Value)
}

// Encode marshals v for publishing
func Encode(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode message")
	}
	return b, nil
}
