package fn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap(t *testing.T) {
	got := Map([]string{"Pasta", "Soup"}, strings.ToLower)
	if len(got) != 2 || got[0] != "pasta" || got[1] != "soup" {
		t.Errorf("got %v", got)
	}
}

func TestFilter(t *testing.T) {
	urls := []string{
		"https://allrecipes.com/pasta",
		"https://pinterest.com/board",
		"https://seriouseats.com/soup",
	}
	got := Filter(urls, func(u string) bool { return !strings.Contains(u, "pinterest") })
	if len(got) != 2 {
		t.Errorf("got %v", got)
	}
}

func TestChunk(t *testing.T) {
	got := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || len(got[2]) != 1 || got[2][0] != 5 {
		t.Errorf("got %v", got)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Error("n<=0 should return nil")
	}
}

func TestUniqueByFirstWins(t *testing.T) {
	type recipe struct {
		title  string
		source string
	}
	items := []recipe{
		{"pad thai", "db"},
		{"pad thai", "web"},
		{"larb", "web"},
	}
	got := UniqueBy(items, func(r recipe) string { return r.title })
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0].source != "db" {
		t.Errorf("first occurrence should win, got %v", got[0])
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1}
	got := ParMap(items, 2, func(v int) int {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return v * 10
	})
	for i, v := range items {
		if got[i] != v*10 {
			t.Fatalf("order broken: %v", got)
		}
	}
}

func TestParMapBoundsConcurrency(t *testing.T) {
	var cur, max atomic.Int32
	ParMap(make([]int, 20), 3, func(int) int {
		n := cur.Add(1)
		for {
			m := max.Load()
			if n <= m || max.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		cur.Add(-1)
		return 0
	})
	if max.Load() > 3 {
		t.Errorf("max concurrency %d, want <= 3", max.Load())
	}
}

func TestFanOut(t *testing.T) {
	got := FanOut(
		func() string { time.Sleep(10 * time.Millisecond); return "summary" },
		func() string { return "facts" },
	)
	if got[0] != "summary" || got[1] != "facts" {
		t.Errorf("got %v", got)
	}
}

func TestFanOutResultFirstError(t *testing.T) {
	boom := errors.New("boom")
	r := FanOutResult(
		func() Result[int] { return Ok(1) },
		func() Result[int] { return Err[int](boom) },
	)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestResultUnwrapOr(t *testing.T) {
	if got := Err[int](errors.New("x")).UnwrapOr(7); got != 7 {
		t.Errorf("got %d", got)
	}
	if got := Ok(3).UnwrapOr(7); got != 3 {
		t.Errorf("got %d", got)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[string] {
		attempts++
		if attempts < 3 {
			return Err[string](errors.New("transient"))
		}
		return Ok("done")
	})
	if v, _ := r.Unwrap(); v != "done" || attempts != 3 {
		t.Errorf("v=%q attempts=%d", v, attempts)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 5, InitialWait: 50 * time.Millisecond}
	r := Retry(ctx, opts, func(context.Context) Result[int] {
		return Err[int](errors.New("always"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
