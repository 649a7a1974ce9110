package engine

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/sashko-guz/imhumane/internal/captcha"
)

func buildCollections(t *testing.T, root string, names []string, imagesPerCollection int) {
	t.Helper()
	for _, name := range names {
		for i := 0; i < imagesPerCollection; i++ {
			path := filepath.Join(root, name, string(rune('a'+i))+".png")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			img := imaging.New(32, 32, color.Transparent)
			if err := imaging.Save(img, path); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(captcha.Config{BufferSize: 2, ImageSize: 16, GapSize: 2, GridLength: 3}, time.Minute, 0)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestScanForCollectionsInsufficient(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildCollections(t, root, []string{"cats"}, 4)

	e := newTestEngine(t)
	if err := e.ScanForCollections(root); err != nil {
		t.Fatalf("ScanForCollections() error = %v", err)
	}

	if _, err := e.generateOne(); err == nil {
		t.Fatal("expected InsufficientCollections with only one collection")
	}
}

func TestEngineGradingHappyPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildCollections(t, root, []string{"cats", "dogs"}, 9)

	e := newTestEngine(t)
	if err := e.ScanForCollections(root); err != nil {
		t.Fatalf("ScanForCollections() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.RunGenerator(ctx)

	getCtx, getCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer getCancel()
	challenge, ok := e.GetChallenge(getCtx)
	if !ok {
		t.Fatal("expected a challenge before the timeout")
	}
	e.RegisterAnswer(challenge.ID, challenge.Answer)

	if !e.CheckAnswer(challenge.ID, challenge.Answer) {
		t.Fatal("CheckAnswer with the correct answer should return true")
	}
	if !e.CheckToken(challenge.ID) {
		t.Fatal("CheckToken should succeed exactly once after a correct answer")
	}
	if e.CheckToken(challenge.ID) {
		t.Fatal("a second CheckToken for the same id must return false")
	}
}

func TestEngineWrongAnswerInvalidatesChallenge(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildCollections(t, root, []string{"cats", "dogs"}, 9)

	e := newTestEngine(t)
	if err := e.ScanForCollections(root); err != nil {
		t.Fatalf("ScanForCollections() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.RunGenerator(ctx)

	getCtx, getCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer getCancel()
	challenge, ok := e.GetChallenge(getCtx)
	if !ok {
		t.Fatal("expected a challenge before the timeout")
	}
	e.RegisterAnswer(challenge.ID, challenge.Answer)

	flipped := flipOneBit(challenge.Answer)
	if e.CheckAnswer(challenge.ID, flipped) {
		t.Fatal("CheckAnswer with a wrong answer should return false")
	}
	if e.CheckAnswer(challenge.ID, challenge.Answer) {
		t.Fatal("a wrong attempt must invalidate the challenge even for a later correct answer")
	}
	if e.CheckToken(challenge.ID) {
		t.Fatal("CheckToken should never succeed for an invalidated challenge")
	}
}

func TestEngineUnknownID(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	const unknown = "00000000-0000-0000-0000-000000000000"
	if e.CheckAnswer(unknown, "000000000") {
		t.Fatal("CheckAnswer on an unknown id should return false")
	}
	if e.CheckToken(unknown) {
		t.Fatal("CheckToken on an unknown id should return false")
	}
}

func flipOneBit(answer string) string {
	b := []byte(answer)
	if len(b) == 0 {
		return answer
	}
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}
