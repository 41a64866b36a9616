package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllow_PerKeyLimit(t *testing.T) {
	l := New(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("hit %d for key a should be allowed", i+1)
		}
	}
	if l.Allow("a") {
		t.Error("hit 4 for key a should be rejected")
	}
	// other keys are unaffected
	if !l.Allow("b") {
		t.Error("first hit for key b should be allowed")
	}
}

func TestAllow_WindowReset(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	defer l.Close()

	if !l.Allow("a") {
		t.Fatal("first hit should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("second hit inside window should be rejected")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("a") {
		t.Error("hit after window expiry should be allowed")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	const limit = 50
	l := New(limit, time.Minute)
	defer l.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("allowed = %d, want exactly %d", allowed, limit)
	}
}
