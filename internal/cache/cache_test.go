// ABOUTME: Tests for the TTL cache
// ABOUTME: Covers hit, miss, expiry, and clearing

package cache

import (
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get = miss, want hit")
	}
	if got != "value" {
		t.Errorf("Get = %q, want %q", got, "value")
	}
}

func TestCache_Miss(t *testing.T) {
	c := New[int](time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("Get = hit, want miss")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.Set("key", "value")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Get = hit after TTL, want miss")
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.SetWithTTL("key", "value", time.Minute)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); !ok {
		t.Error("Get = miss, want hit under the longer per-entry TTL")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[[]int](time.Minute)
	c.Set("key", []int{1, 2, 3})
	c.Clear("key")

	if _, ok := c.Get("key"); ok {
		t.Error("Get = hit after Clear, want miss")
	}
}
