package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errSearchDown = errors.New("search down")

func failing(context.Context) error { return errSearchDown }
func succeeding(context.Context) error { return nil }

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), failing); !errors.Is(err, errSearchDown) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker should reject, got %v", err)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})

	b.Call(context.Background(), failing)
	b.Call(context.Background(), succeeding)
	b.Call(context.Background(), failing)

	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after reset", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	clock = clock.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after timeout", b.State())
	}

	// Successful probe closes the breaker.
	if err := b.Call(context.Background(), succeeding); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after probe", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), failing)
	clock = clock.Add(11 * time.Second)

	if err := b.Call(context.Background(), failing); !errors.Is(err, errSearchDown) {
		t.Fatal(err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want reopened", b.State())
	}
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), failing)
	clock = clock.Add(11 * time.Second)
	b.State() // transition to half-open

	started := make(chan struct{})
	release := make(chan struct{})
	go b.Call(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe should be rejected, got %v", err)
	}
	close(release)
}
