package cache

import (
	"testing"
	"time"

	"lukechampine.com/blake3"
)

func TestManifestSeenRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := NewManifest(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	hash := blake3.Sum256([]byte("content-v1"))
	if m.Seen("cats/a.jpg", hash) {
		t.Fatal("expected a miss before any Record")
	}

	if err := m.Record("cats/a.jpg", hash); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !m.Seen("cats/a.jpg", hash) {
		t.Fatal("expected a hit for the exact content just recorded")
	}

	otherHash := blake3.Sum256([]byte("content-v2"))
	if m.Seen("cats/a.jpg", otherHash) {
		t.Fatal("expected a miss for different content at the same key")
	}
}

func TestManifestExpires(t *testing.T) {
	t.Parallel()

	m, err := NewManifest(t.TempDir(), 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	hash := blake3.Sum256([]byte("content"))
	if err := m.Record("k", hash); err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)

	if m.Seen("k", hash) {
		t.Fatal("expected the record to have expired")
	}
}
