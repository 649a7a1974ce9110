package sample

import (
	"strings"
	"testing"

	"github.com/sashko-guz/imhumane/internal/captcha"
)

func collections(n, imagesPerCollection int) []captcha.Collection {
	out := make([]captcha.Collection, n)
	for i := range out {
		images := make([]string, imagesPerCollection)
		for j := range images {
			images[j] = "image"
		}
		out[i] = captcha.Collection{Name: string(rune('a' + i)), Images: images}
	}
	return out
}

func TestSampleInsufficientCollections(t *testing.T) {
	t.Parallel()

	_, err := Sample(collections(1, 9), 3)
	if err == nil {
		t.Fatal("expected InsufficientCollections error with only 1 collection")
	}
}

func TestSampleAnswerLengthAndAlphabet(t *testing.T) {
	t.Parallel()

	cols := collections(2, 9)
	for trial := 0; trial < 50; trial++ {
		result, err := Sample(cols, 3)
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		if len(result.Answer) != 9 {
			t.Fatalf("len(answer) = %d, want 9", len(result.Answer))
		}
		if strings.Trim(result.Answer, "01") != "" {
			t.Fatalf("answer %q contains characters other than 0/1", result.Answer)
		}
	}
}

func TestSampleAnswerConsistency(t *testing.T) {
	t.Parallel()

	cols := collections(2, 9)
	result, err := Sample(cols, 3)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	onesInAnswer := strings.Count(result.Answer, "1")
	correctCells := 0
	for _, cell := range result.Cells {
		if cell.IsCorrect {
			correctCells++
		}
	}
	if onesInAnswer != correctCells {
		t.Fatalf("answer has %d ones but %d cells are marked correct", onesInAnswer, correctCells)
	}
}

func TestSampleTopicIsAKnownCollection(t *testing.T) {
	t.Parallel()

	cols := collections(3, 9)
	result, err := Sample(cols, 3)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	found := false
	for _, c := range cols {
		if c.Name == result.Topic {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("topic %q does not match any registered collection", result.Topic)
	}
}

func TestSampleBothExtremesObservable(t *testing.T) {
	t.Parallel()

	cols := collections(2, 9)
	sawMin, sawMax := false, false
	for trial := 0; trial < 1000; trial++ {
		result, err := Sample(cols, 3)
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		ones := strings.Count(result.Answer, "1")
		if ones <= 1 {
			sawMin = true
		}
		if ones >= 8 {
			sawMax = true
		}
	}
	if !sawMin || !sawMax {
		t.Fatalf("expected to observe both sparse and dense answers over 1000 trials, sawMin=%v sawMax=%v", sawMin, sawMax)
	}
}
