// Package testutil provides shared test helpers for the lapol packages.
package testutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ContainsSubstring checks if haystack contains needle (case-insensitive).
func ContainsSubstring(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// AssertNoErrors fails the test if errors slice is not empty.
func AssertNoErrors[E error](t *testing.T, errs []E) {
	t.Helper()
	if len(errs) != 0 {
		t.Errorf("Expected no errors, got %d: %v", len(errs), errs)
	}
}

// AssertErrorCount fails if error count doesn't match expected.
func AssertErrorCount[E error](t *testing.T, errs []E, expected int) {
	t.Helper()
	if len(errs) != expected {
		t.Fatalf("Expected %d errors, got %d: %v", expected, len(errs), errs)
	}
}

// AssertErrorContains fails if no error contains the expected substring.
func AssertErrorContains[E error](t *testing.T, errs []E, expected string) {
	t.Helper()
	for _, err := range errs {
		if ContainsSubstring(err.Error(), expected) {
			return
		}
	}
	t.Errorf("Expected error containing %q, got: %v", expected, errs)
}

// RequireErrorIs stops the test unless 'err' matches 'target'.
func RequireErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("Expected error matching %v, got: %v", target, err)
	}
}

// AssertDiff fails with a readable diff when 'want' and 'got' differ.
func AssertDiff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
