// Package sample implements the Sampler: collection selection, weighted
// draw without replacement, and the derivation of both the challenge's
// cell ordering and its answer bitstring from that one draw.
package sample

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/sashko-guz/imhumane/internal/captcha"
)

// Drawn is one sampled grid cell: the source image path and whether it
// came from the correct (topic) collection.
type Drawn struct {
	Path      string
	IsCorrect bool
}

// Result is everything the engine needs to hand a draw to the Composer and
// register its answer.
type Result struct {
	ID     string
	Topic  string
	Cells  []Drawn
	Answer string
}

// candidate is one pool entry before the weighted draw assigns it a key.
type candidate struct {
	path      string
	weight    float64
	isCorrect bool
}

// Sample picks a topic and distractor collections, draws a weighted set of
// cells without replacement, and derives the challenge id, cell ordering
// and answer bitstring from that one draw, against a registry snapshot.
func Sample(collections []captcha.Collection, gridLength int) (Result, error) {
	if len(collections) < 2 {
		return Result{}, captcha.ErrInsufficientCollections()
	}

	maxK := len(collections)
	if maxK > 5 {
		maxK = 5
	}
	k := uniformInt(2, maxK)

	chosen := chooseWithoutReplacement(collections, k)
	topic := chosen[0].Name

	var pool []candidate
	for i, c := range chosen {
		isCorrect := i == 0
		w := 1.0
		if isCorrect {
			w = float64(k)
		}
		for _, path := range c.Images {
			pool = append(pool, candidate{path: path, weight: w, isCorrect: isCorrect})
		}
	}

	cells := gridLength * gridLength
	drawn := weightedSampleWithoutReplacement(pool, cells)

	result := Result{
		ID:    uuid.NewString(),
		Topic: topic,
		Cells: make([]Drawn, len(drawn)),
	}
	answer := make([]byte, len(drawn))
	for i, d := range drawn {
		result.Cells[i] = Drawn{Path: d.path, IsCorrect: d.isCorrect}
		if d.isCorrect {
			answer[i] = '1'
		} else {
			answer[i] = '0'
		}
	}
	result.Answer = string(answer)
	return result, nil
}

// uniformInt returns an integer in [lo, hi] inclusive.
func uniformInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

// chooseWithoutReplacement returns k distinct collections from pool, order
// randomized by taking the first k indices of a random permutation.
func chooseWithoutReplacement(pool []captcha.Collection, k int) []captcha.Collection {
	idx := rand.Perm(len(pool))[:k]
	out := make([]captcha.Collection, k)
	for i, p := range idx {
		out[i] = pool[p]
	}
	return out
}

type keyedCandidate struct {
	candidate
	key float64
}

// weightedSampleWithoutReplacement draws n entries from pool using
// Efraimidis-Spirakis weighted sampling without replacement: every entry
// gets a key u^(1/weight) for u ~ Uniform(0,1), and the n entries with the
// largest keys are taken, in descending-key order. This determines both
// the visual placement and the answer bitstring in the same pass, so
// there is no separate tie-breaking step to get out of sync with it.
func weightedSampleWithoutReplacement(pool []candidate, n int) []candidate {
	keyed := make([]keyedCandidate, len(pool))
	for i, c := range pool {
		u := rand.Float64()
		if u <= 0 {
			u = 1e-12 // guard: u == 0 would zero the key regardless of weight
		}
		keyed[i] = keyedCandidate{candidate: c, key: math.Pow(u, 1.0/c.weight)}
	}

	sort.Slice(keyed, func(i, j int) bool {
		return keyed[i].key > keyed[j].key
	})

	if n > len(keyed) {
		n = len(keyed)
	}
	out := make([]candidate, n)
	for i := 0; i < n; i++ {
		out[i] = keyed[i].candidate
	}
	return out
}
