// Package store holds the two small pieces of process-local state that sit
// between a minted Challenge and a redeemed Token: the Answer Store and
// the Token Store.
package store

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultAnswerTTL bounds the lifetime of answer entries so a client that
// fetches challenges and never grades them cannot keep them alive
// indefinitely; DefaultAnswerCapacity bounds their count.
const DefaultAnswerTTL = 10 * time.Minute

// DefaultAnswerCapacity bounds the number of outstanding ungraded
// challenges tracked at once; it is sized well above any realistic
// buffer_size so it never evicts a live challenge under normal load.
const DefaultAnswerCapacity = 4096

// AnswerStore maps a challenge id to its expected answer string. Entries
// are removed by the first Take for that id, or expire after TTL,
// whichever happens first.
type AnswerStore struct {
	mu    sync.Mutex
	cache *lru.LRU[string, string]
}

func NewAnswerStore(capacity int, ttl time.Duration) *AnswerStore {
	if capacity <= 0 {
		capacity = DefaultAnswerCapacity
	}
	if ttl <= 0 {
		ttl = DefaultAnswerTTL
	}
	return &AnswerStore{cache: lru.NewLRU[string, string](capacity, nil, ttl)}
}

// Insert records the expected answer for id, replacing any prior entry.
func (s *AnswerStore) Insert(id, answer string) {
	s.mu.Lock()
	s.cache.Add(id, answer)
	s.mu.Unlock()
}

// Take atomically removes and returns the expected answer for id. The
// second return value is false if id was never inserted, was already
// taken, or has expired. The underlying LRU has no combined get-and-delete
// primitive, so the two-step Get/Remove is guarded by mu: without it, two
// concurrent Take calls for the same id could both observe the answer
// before either removed it.
func (s *AnswerStore) Take(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.cache.Get(id)
	if !ok {
		return "", false
	}
	s.cache.Remove(id)
	return answer, true
}

func (s *AnswerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
