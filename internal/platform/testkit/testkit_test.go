package testkit

import (
	"sync"
	"testing"
	"time"
)

var retryBase = 200 * time.Millisecond

func TestMustPanicReturnsValue(t *testing.T) {
	v := MustPanic(t, func() { panic("referral.Service requires a non nil Publisher") })
	if v != "referral.Service requires a non nil Publisher" {
		t.Fatalf("recovered %v", v)
	}
	MustPanicWith(t, "non nil Publisher", func() { panic("referral.Service requires a non nil Publisher") })
}

func TestMustNotPanic(t *testing.T) {
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	MustContain(t, `{"level":"warn","batch_id":7,"message":"scheduling cycle skipped"}`, `"batch_id":7`)
}

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &retryBase, time.Millisecond)
		if retryBase != time.Millisecond {
			t.Fatalf("swap did not take effect: %v", retryBase)
		}
	})
	if retryBase != 200*time.Millisecond {
		t.Fatalf("swap not restored: %v", retryBase)
	}
}

func TestSerialExcludesOtherTests(t *testing.T) {
	var (
		mu     sync.Mutex
		active int
		peak   int
	)
	for i := range 4 {
		t.Run("", func(t *testing.T) {
			t.Parallel()
			Serial(t)
			mu.Lock()
			active++
			peak = max(peak, active)
			mu.Unlock()
			time.Sleep(time.Duration(i) * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	t.Cleanup(func() {
		if peak != 1 {
			t.Fatalf("peak concurrency %d, want 1", peak)
		}
	})
}

func TestClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("now = %v", c.Now())
	}
	if got := c.Advance(25 * time.Hour); !got.Equal(start.Add(25 * time.Hour)) {
		t.Fatalf("advance = %v", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("set = %v", c.Now())
	}
}
