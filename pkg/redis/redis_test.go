package redis

import (
	"context"
	"testing"

	"github.com/quantlab-in/niftybias/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewClientDisabled(t *testing.T) {
	client := disabledClient(t)
	if client.Enabled() {
		t.Error("expected client to be disabled")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "niftybias")

	// When Redis is disabled, all requests should be allowed.
	allowed, remaining, err := limiter.Allow(context.Background(), NSERateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("expected request to be allowed when Redis disabled")
	}
	if remaining != NSERateLimit.Limit {
		t.Errorf("remaining = %d, want %d", remaining, NSERateLimit.Limit)
	}
}

func TestRateLimiterWaitDisabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "niftybias")

	if err := limiter.Wait(context.Background(), CNNRateLimit); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestCacheDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "niftybias")
	ctx := context.Background()

	// Disabled Redis degrades to misses and no-op writes.
	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "LatestBiasKey",
			fn:       LatestBiasKey,
			expected: "bias:latest",
		},
		{
			name:     "HistoryKey",
			fn:       func() string { return HistoryKey(30) },
			expected: "bias:history:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
