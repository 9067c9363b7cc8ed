package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quantlab-in/niftybias/internal/contracts"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// fakeAdapter scripts a sequence of fetch outcomes.
type fakeAdapter struct {
	name     string
	critical bool
	results  []fakeResult
	calls    int
}

type fakeResult struct {
	rec *contracts.SourceRecord
	err error
}

func (a *fakeAdapter) Name() string   { return a.name }
func (a *fakeAdapter) Critical() bool { return a.critical }

func (a *fakeAdapter) Fetch(ctx context.Context) (*contracts.SourceRecord, error) {
	if a.calls >= len(a.results) {
		return nil, fmt.Errorf("unexpected call %d to %s", a.calls+1, a.name)
	}
	r := a.results[a.calls]
	a.calls++
	return r.rec, r.err
}

func testRetryPolicy(maxRetries int) (*RetryPolicy, *[]time.Duration) {
	log := logger.New(&config.Config{LogLevel: "error"})
	p := NewRetryPolicy(config.FetchConfig{
		MaxRetries:     maxRetries,
		RetryBaseDelay: 5 * time.Second,
	}, log)

	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestFetchFirstAttemptSuccess(t *testing.T) {
	p, slept := testRetryPolicy(3)
	adapter := &fakeAdapter{
		name:    "fiidii",
		results: []fakeResult{{rec: &contracts.SourceRecord{FIINet: contracts.Float(100)}}},
	}

	out := p.Fetch(context.Background(), adapter)

	if !out.Success() {
		t.Fatal("expected success")
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", out.Attempts)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %d times, want 0", len(*slept))
	}
}

func TestFetchRecoversAfterFailures(t *testing.T) {
	p, slept := testRetryPolicy(3)
	adapter := &fakeAdapter{
		name: "vix",
		results: []fakeResult{
			{err: errors.New("timeout")},
			{err: errors.New("http 503")},
			{rec: &contracts.SourceRecord{VIX: contracts.Float(14.2)}},
		},
	}

	out := p.Fetch(context.Background(), adapter)

	if !out.Success() {
		t.Fatal("expected success on third attempt")
	}
	if out.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", out.Attempts)
	}

	// Linear backoff: base*1, base*2.
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(*slept), len(want))
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestFetchExhaustion(t *testing.T) {
	p, slept := testRetryPolicy(3)
	adapter := &fakeAdapter{
		name: "futures_oi",
		results: []fakeResult{
			{err: errors.New("404")},
			{err: errors.New("404")},
			{err: errors.New("404")},
		},
	}

	out := p.Fetch(context.Background(), adapter)

	if out.Success() {
		t.Fatal("expected failure")
	}
	if out.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", out.Attempts)
	}
	if out.Err == nil {
		t.Error("Err should carry the last error")
	}
	if out.Unavailable {
		t.Error("plain failure must not be marked unavailable")
	}
	// No sleep after the final attempt.
	if len(*slept) != 2 {
		t.Errorf("slept %d times, want 2", len(*slept))
	}
}

func TestFetchUnavailableBypassesRetries(t *testing.T) {
	p, slept := testRetryPolicy(3)
	adapter := &fakeAdapter{
		name: "option_chain",
		results: []fakeResult{
			{err: fmt.Errorf("chain empty: %w", contracts.ErrUnavailable)},
		},
	}

	out := p.Fetch(context.Background(), adapter)

	if out.Success() {
		t.Fatal("expected no record")
	}
	if !out.Unavailable {
		t.Error("expected unavailable outcome")
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (no retries)", out.Attempts)
	}
	if adapter.calls != 1 {
		t.Errorf("adapter called %d times, want 1", adapter.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %d times, want 0", len(*slept))
	}
}

func TestFetchNilNilIsFailure(t *testing.T) {
	p, _ := testRetryPolicy(2)
	adapter := &fakeAdapter{
		name: "sp500",
		results: []fakeResult{
			{rec: nil, err: nil},
			{rec: nil, err: nil},
		},
	}

	out := p.Fetch(context.Background(), adapter)

	if out.Success() {
		t.Fatal("nil record with nil error must not be a success")
	}
	if out.Err == nil {
		t.Error("expected an error for the empty result")
	}
	if adapter.calls != 2 {
		t.Errorf("adapter called %d times, want 2 (retried)", adapter.calls)
	}
}

func TestFetchCancelledDuringBackoff(t *testing.T) {
	log := logger.New(&config.Config{LogLevel: "error"})
	p := NewRetryPolicy(config.FetchConfig{
		MaxRetries:     3,
		RetryBaseDelay: time.Hour,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &fakeAdapter{
		name:    "fiidii",
		results: []fakeResult{{err: errors.New("timeout")}},
	}

	out := p.Fetch(ctx, adapter)

	if out.Success() {
		t.Fatal("expected failure on cancelled context")
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
}
