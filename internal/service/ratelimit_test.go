package service_test

import (
	"testing"

	"github.com/msomdec/captionly/internal/service"
)

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := service.NewTokenBucket(1, 3)

	for i := range 3 {
		if !tb.Allow("test-key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if tb.Allow("test-key") {
		t.Fatal("4th request should be denied")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)

	if !tb.Allow("ip-a") {
		t.Fatal("ip-a first request should be allowed")
	}
	if tb.Allow("ip-a") {
		t.Fatal("ip-a second request should be denied")
	}
	if !tb.Allow("ip-b") {
		t.Fatal("ip-b first request should be allowed")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := service.NewTokenBucket(0, 2)

	for i := range 2 {
		if !tb.Allow("k") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if tb.Allow("k") {
		t.Fatal("third request should be denied")
	}
}

func TestPerMinuteLimiter_Burst(t *testing.T) {
	tb := service.NewPerMinuteLimiter(10, 5)

	allowed := 0
	for range 8 {
		if tb.Allow("10.0.0.1") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("allowed = %d, want 5", allowed)
	}
}
