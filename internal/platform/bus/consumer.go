package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"

	"github.com/segmentio/kafka-go"
)

// messageReader is the slice of *kafka.Reader the consumer needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic in a consumer group and feeds a Handler
type Consumer struct {
	r          messageReader
	topic      string
	attempts   int
	backoff    time.Duration
	deadLetter string
	dlq        Publisher
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewConsumer builds a group reader for topic. dlq may be nil, in which case a
// handler that keeps failing stops the consumer without committing
func NewConsumer(cfg Config, topic string, dlq Publisher) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, perr.InvalidArgf("bus: at least one broker is required")
	}
	if topic == "" || cfg.GroupID == "" {
		return nil, perr.InvalidArgf("bus: topic and group id are required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.GroupID,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(r, topic, cfg, dlq), nil
}

func newConsumer(r messageReader, topic string, cfg Config, dlq Publisher) *Consumer {
	attempts := cfg.HandlerAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Consumer{
		r:          r,
		topic:      topic,
		attempts:   attempts,
		backoff:    cfg.RetryBackoff,
		deadLetter: cfg.Topics.DeadLetter,
		dlq:        dlq,
		sleep:      sleepCtx,
	}
}

// Topic returns the topic this consumer reads
func (c *Consumer) Topic() string { return c.topic }

// Run fetches and handles messages until ctx is cancelled. It returns nil on
// cancellation and an error only when a message could neither be handled nor
// dead lettered
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	log := logger.Named("bus").With().Str("topic", c.topic).Logger()
	log.Info().Msg("consumer started")
	defer log.Info().Msg("consumer stopped")

	for {
		km, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("fetch failed")
			if err := c.sleep(ctx, c.backoff); err != nil {
				return nil
			}
			continue
		}

		m := fromKafka(km)
		if err := c.dispatch(ctx, h, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.r.CommitMessages(ctx, km); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Int64("offset", km.Offset).Msg("commit failed")
		}
	}
}

// dispatch returns nil when the offset may be committed
func (c *Consumer) dispatch(ctx context.Context, h Handler, m Message) error {
	log := logger.C(ctx).With().Str("topic", m.Topic).Int64("offset", m.Offset).Logger()
	start := time.Now()

	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		err = safeCall(ctx, h, m)
		switch {
		case err == nil:
			metrics.RecordMessage(m.Topic, "ok", time.Since(start).Seconds())
			return nil
		case perr.IsCode(err, perr.ErrorCodeNotFound):
			log.Debug().Err(err).Msg("stale message acknowledged")
			metrics.RecordMessage(m.Topic, "stale", time.Since(start).Seconds())
			return nil
		case perr.Terminal(err):
			log.Warn().Err(err).Str("code", perr.CodeOf(err).String()).Msg("message rejected")
			metrics.RecordMessage(m.Topic, "rejected", time.Since(start).Seconds())
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("handler failed")
		if attempt < c.attempts {
			if serr := c.sleep(ctx, c.backoff*time.Duration(attempt)); serr != nil {
				return serr
			}
		}
	}

	if c.dlq == nil || c.deadLetter == "" {
		metrics.RecordMessage(m.Topic, "failed", time.Since(start).Seconds())
		return fmt.Errorf("bus: %s offset %d: %w", m.Topic, m.Offset, err)
	}
	headers := make(map[string]string, len(m.Headers)+2)
	for k, v := range m.Headers {
		headers[k] = v
	}
	headers[HeaderError] = err.Error()
	headers[HeaderSource] = m.Topic
	if derr := c.dlq.Publish(ctx, c.deadLetter, m.Key, headers, json.RawMessage(m.Value)); derr != nil {
		metrics.RecordMessage(m.Topic, "failed", time.Since(start).Seconds())
		return errors.Join(err, derr)
	}
	log.Error().Err(err).Str("dead_letter", c.deadLetter).Msg("message dead lettered")
	metrics.RecordMessage(m.Topic, "dead_letter", time.Since(start).Seconds())
	return nil
}

// Close closes the reader
func (c *Consumer) Close() error { return c.r.Close() }

// Group runs several consumers and returns once all of them stopped. The
// first consumer error cancels the rest
func Group(ctx context.Context, runs map[*Consumer]Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for c, h := range runs {
		wg.Add(1)
		go func(c *Consumer, h Handler) {
			defer wg.Done()
			if err := c.Run(ctx, h); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				cancel()
			}
		}(c, h)
	}
	wg.Wait()
	return first
}

func safeCall(ctx context.Context, h Handler, m Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("handler panic: %v", r)
		}
	}()
	return h(ctx, m)
}

func fromKafka(km kafka.Message) Message {
	return Message{
		Topic:     km.Topic,
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   fromKafkaHeaders(km.Headers),
		Partition: km.Partition,
		Offset:    km.Offset,
		Time:      km.Time,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
