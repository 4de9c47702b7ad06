package bus

import (
	"time"

	"datacompliance/internal/platform/config"
)

// Topics names every topic the engine reads or writes
type Topics struct {
	WindowRequests    string
	AdHocRequests     string
	PendingDeletions  string
	PendingComplete   string
	ExternalDeletions string
	CheckRequests     string
	CheckResults      string
	DeletionGranted   string
	DeletionComplete  string
	DeadLetter        string
}

// Config configures producers and consumers
type Config struct {
	Brokers      []string
	GroupID      string
	ClientID     string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxAttempts  int
	MinBytes     int
	MaxBytes     int
	MaxWait      time.Duration

	// HandlerAttempts bounds in-process retries of a failing handler
	// before the message is dead lettered
	HandlerAttempts int
	RetryBackoff    time.Duration

	Topics Topics
}

// ConfigFromEnv reads BUS_* settings
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("BUS_")
	t := c.Prefix("TOPIC_")
	return Config{
		Brokers:         c.MayCSV("BROKERS", []string{"localhost:9092"}),
		GroupID:         c.MayString("GROUP_ID", "retention-engine"),
		ClientID:        c.MayString("CLIENT_ID", "datacompliance"),
		BatchTimeout:    c.MayDuration("BATCH_TIMEOUT", 10*time.Millisecond),
		WriteTimeout:    c.MayDuration("WRITE_TIMEOUT", 10*time.Second),
		MaxAttempts:     c.MayInt("MAX_ATTEMPTS", 3),
		MinBytes:        c.MayInt("MIN_BYTES", 1),
		MaxBytes:        c.MayInt("MAX_BYTES", 10e6),
		MaxWait:         c.MayDuration("MAX_WAIT", 3*time.Second),
		HandlerAttempts: c.MayInt("HANDLER_ATTEMPTS", 5),
		RetryBackoff:    c.MayDuration("RETRY_BACKOFF", 200*time.Millisecond),
		Topics: Topics{
			WindowRequests:    t.MayString("WINDOW_REQUESTS", "deletion-window-requests"),
			AdHocRequests:     t.MayString("ADHOC_REQUESTS", "adhoc-referral-requests"),
			PendingDeletions:  t.MayString("PENDING_DELETIONS", "pending-deletions"),
			PendingComplete:   t.MayString("PENDING_COMPLETE", "pending-deletions-complete"),
			ExternalDeletions: t.MayString("EXTERNAL_DELETIONS", "external-deletions"),
			CheckRequests:     t.MayString("CHECK_REQUESTS", "retention-check-requests"),
			CheckResults:      t.MayString("CHECK_RESULTS", "retention-check-results"),
			DeletionGranted:   t.MayString("DELETION_GRANTED", "deletion-granted"),
			DeletionComplete:  t.MayString("DELETION_COMPLETE", "deletion-complete"),
			DeadLetter:        t.MayString("DEAD_LETTER", "retention-dead-letters"),
		},
	}
}
