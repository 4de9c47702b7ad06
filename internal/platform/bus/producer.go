package bus

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/metrics"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the slice of *kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes to any topic through one writer
type Producer struct {
	w   messageWriter
	now func() time.Time
}

var _ Publisher = (*Producer)(nil)

// NewProducer builds a producer over the configured brokers. The writer has
// no fixed topic so each message names its own
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, perr.InvalidArgf("bus: at least one broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		MaxAttempts:            cfg.MaxAttempts,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w), nil
}

func newProducer(w messageWriter) *Producer {
	return &Producer{w: w, now: time.Now}
}

// Publish encodes v as JSON and writes it synchronously
func (p *Producer) Publish(ctx context.Context, topic, key string, headers map[string]string, v any) error {
	value, err := Encode(v)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: toKafkaHeaders(headers),
		Time:    p.now().UTC(),
	}
	err = p.w.WriteMessages(ctx, msg)
	metrics.RecordPublish(topic, err)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodePublish, "publish to %s", topic)
	}
	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error { return p.w.Close() }

func toKafkaHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(h))
	for k, v := range h {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromKafkaHeaders(hs []kafka.Header) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Key] = string(h.Value)
	}
	return out
}
