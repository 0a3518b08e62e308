package util

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalizePatternPath(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"./src/pages", "src/pages"},
		{"src\\pages\\user", "src/pages/user"},
		{"  src/pages/  ", "src/pages"},
		{".", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePatternPath(tt.in); got != tt.expected {
			t.Errorf("NormalizePatternPath(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestHasPathPrefix(t *testing.T) {
	if !HasPathPrefix("src/pages/user.tsx", "src/pages") {
		t.Error("expected containment")
	}
	if HasPathPrefix("src/pages-admin/user.tsx", "src/pages") {
		t.Error("sibling directory must not match")
	}
	if !HasPathPrefix("src/pages", "src/pages") {
		t.Error("expected exact match")
	}
}

func TestUniqueScanRoots(t *testing.T) {
	got := UniqueScanRoots([]string{"src/pages", "src", "lib", "src/components"})
	expected := []string{"lib", "src"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("UniqueScanRoots = %v, expected %v", got, expected)
	}
}

func TestSortedStringSet(t *testing.T) {
	set := map[string]struct{}{"b.tsx": {}, "a.tsx": {}}
	got := SortedStringSet(set)
	if !reflect.DeepEqual(got, []string{"a.tsx", "b.tsx"}) {
		t.Errorf("SortedStringSet = %v", got)
	}
}

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}
