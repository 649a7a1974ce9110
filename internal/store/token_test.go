package store

import "testing"

func TestTokenStoreSingleUse(t *testing.T) {
	t.Parallel()

	s := NewTokenStore()
	s.Insert("tok-1")

	if !s.Take("tok-1") {
		t.Fatal("first Take should return true")
	}
	if s.Take("tok-1") {
		t.Fatal("second Take for the same token should return false")
	}
}

func TestTokenStoreUnknown(t *testing.T) {
	t.Parallel()

	s := NewTokenStore()
	if s.Take("never-inserted") {
		t.Fatal("Take on an unknown token should return false")
	}
}
