package httpmiddleware

import "testing"

func TestTokenBucketExhausts(t *testing.T) {
	l := NewTokenBucket(3, 3)
	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.allow("1.2.3.4") {
		t.Error("bucket should be empty")
	}
	// A different client has its own bucket.
	if !l.allow("5.6.7.8") {
		t.Error("other client should be allowed")
	}
}

func TestTokenBucketCapacityFallback(t *testing.T) {
	l := NewTokenBucket(0, 10)
	if l.capacity != 10 {
		t.Errorf("capacity: want 10, got %d", l.capacity)
	}
}
