// Package testkit holds the assertions and seams shared by package tests
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MustPanic asserts fn panics and that the panic text holds every want
func MustPanic(t *testing.T, fn func(), want ...string) {
	t.Helper()
	msg, ok := catch(fn)
	if !ok {
		t.Fatalf("expected panic, got none")
	}
	for _, w := range want {
		if !strings.Contains(msg, w) {
			t.Fatalf("panic %q does not mention %q", msg, w)
		}
	}
}

// MustNotPanic asserts fn returns normally
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	if msg, ok := catch(fn); ok {
		t.Fatalf("unexpected panic: %s", msg)
	}
}

func catch(fn func()) (msg string, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			msg, panicked = fmt.Sprint(r), true
		}
	}()
	fn()
	return "", false
}

// MustContain asserts haystack contains needle. Long haystacks are dumped
// to a temp file instead of the failure message
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	if len(haystack) <= 512 {
		t.Fatalf("expected %q in:\n%s", needle, haystack)
	}
	dump := filepath.Join(t.TempDir(), "haystack.txt")
	_ = os.WriteFile(dump, []byte(haystack), 0o600)
	t.Fatalf("expected %q, full text in %s", needle, dump)
}

// MustNotContain is the inverse of MustContain
func MustNotContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Fatalf("unexpected %q in:\n%s", needle, haystack)
	}
}
