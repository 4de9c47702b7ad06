// Package testkit holds helpers shared by the platform and service tests
package testkit

import (
	"fmt"
	"strings"
	"testing"
)

// MustPanic asserts that fn panics and returns the recovered value
func MustPanic(t *testing.T, fn func()) (v any) {
	t.Helper()
	defer func() {
		v = recover()
		if v == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
	return nil
}

// MustPanicWith asserts that fn panics with a message containing want
func MustPanicWith(t *testing.T, want string, fn func()) {
	t.Helper()
	v := MustPanic(t, fn)
	if msg := fmt.Sprint(v); !strings.Contains(msg, want) {
		t.Fatalf("panic %q does not mention %q", msg, want)
	}
}

// MustNotPanic asserts that fn does not panic
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle and prints haystack when
// it does not, which is usually a captured log line
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
