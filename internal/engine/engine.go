// Package engine implements the Engine façade: it wires the Collection
// Registry, Thumbnail Cache, Composer, Sampler, Challenge Buffer and the
// Answer/Token stores together and runs the Generator Worker loop.
package engine

import (
	"context"
	"image"
	"time"

	"github.com/sashko-guz/imhumane/internal/cache"
	"github.com/sashko-guz/imhumane/internal/captcha"
	"github.com/sashko-guz/imhumane/internal/compose"
	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/metrics"
	"github.com/sashko-guz/imhumane/internal/queue"
	"github.com/sashko-guz/imhumane/internal/registry"
	"github.com/sashko-guz/imhumane/internal/sample"
	"github.com/sashko-guz/imhumane/internal/store"
	"github.com/sashko-guz/imhumane/internal/thumbnail"
)

var log = logger.Component("Engine")

// retryBackoff is the pause a generator takes after a failed iteration
// before trying again.
const retryBackoff = 1 * time.Second

// Engine is the shared object workers and request handlers hold. The zero
// value is not usable; construct with New.
type Engine struct {
	cfg captcha.Config

	registry *registry.Registry
	pending  *queue.Pending
	thumbs   *thumbnail.Cache
	buffer   *queue.Buffer[captcha.Challenge]
	answers  *store.AnswerStore
	tokens   *store.TokenStore
}

// New constructs an Engine from its fixed grid configuration plus the
// answer-store TTL and the source-bytes cache budget. answerTTL of zero
// uses store.DefaultAnswerTTL.
func New(cfg captcha.Config, answerTTL time.Duration, sourceByteBudget int64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sources, err := cache.NewSourceBytes(sourceByteBudget)
	if err != nil {
		return nil, err
	}

	pending := queue.NewPending()
	return &Engine{
		cfg:      cfg,
		registry: registry.New(pending),
		pending:  pending,
		thumbs:   thumbnail.New(cfg.ImageSize, sources),
		buffer:   queue.NewBuffer[captcha.Challenge](cfg.BufferSize),
		answers:  store.NewAnswerStore(store.DefaultAnswerCapacity, answerTTL),
		tokens:   store.NewTokenStore(),
	}, nil
}

// ScanForCollections (re)builds the registry from root.
func (e *Engine) ScanForCollections(root string) error {
	return e.registry.Scan(root)
}

// Empty reports whether the Challenge Buffer currently holds no challenge.
// Advisory only, matching queue.Buffer.IsEmpty's race window.
func (e *Engine) Empty() bool {
	return e.buffer.IsEmpty()
}

// GetChallenge awaits the next ready challenge, honoring ctx cancellation
// as caller-side abandonment: it never cancels generation already in
// flight, only the caller's own wait.
func (e *Engine) GetChallenge(ctx context.Context) (captcha.Challenge, bool) {
	return e.buffer.Pop(ctx)
}

// TryGetChallenge is the non-blocking variant.
func (e *Engine) TryGetChallenge() (captcha.Challenge, bool) {
	return e.buffer.TryPop()
}

// RegisterAnswer records the expected answer for a challenge that has just
// been handed to a client. The HTTP layer calls this immediately after
// GetChallenge/TryGetChallenge return a challenge.
func (e *Engine) RegisterAnswer(id, answer string) {
	e.answers.Insert(id, answer)
}

// CheckAnswer takes the expected answer out of the Answer Store and
// compares it to provided. A wrong attempt still consumes the entry, so a
// single mistake invalidates the challenge for any later retry.
func (e *Engine) CheckAnswer(id, provided string) bool {
	expected, ok := e.answers.Take(id)
	if !ok {
		return false
	}
	if provided != expected {
		return false
	}
	e.tokens.Insert(id)
	return true
}

// CheckToken redeems the one-shot token minted by a successful CheckAnswer.
func (e *Engine) CheckToken(id string) bool {
	return e.tokens.Take(id)
}

// RunGenerator runs one generator worker's loop until ctx is canceled.
// Cancellation is only observed between iterations, never mid-generation.
func (e *Engine) RunGenerator(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		challenge, err := e.generateOne()
		if err != nil {
			log.Errorf("generation failed: %v", err)
			metrics.GenerationFailures.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
			continue
		}

		e.warmPendingWhileFull()
		e.buffer.Push(challenge)
		metrics.ChallengesGenerated.Inc()
		metrics.BufferDepth.Set(float64(e.buffer.Len()))
	}
}

// warmPendingWhileFull drains the pending-thumbnail queue opportunistically
// while the buffer is full, turning otherwise-idle backpressure time into
// useful cache warming. It stops as soon as either condition no longer
// holds.
func (e *Engine) warmPendingWhileFull() {
	for e.buffer.IsFull() {
		path, ok := e.pending.TryPop()
		if !ok {
			return
		}
		if _, err := e.thumbs.Get(path); err != nil {
			log.Warnf("opportunistic warm of %s failed: %v", path, err)
		}
	}
}

func (e *Engine) generateOne() (captcha.Challenge, error) {
	snapshot := e.registry.Snapshot()
	drawn, err := sample.Sample(snapshot, e.cfg.GridLength)
	if err != nil {
		return captcha.Challenge{}, err
	}

	thumbs := make([]image.Image, len(drawn.Cells))
	for i, cell := range drawn.Cells {
		img, err := e.thumbs.Get(cell.Path)
		if err != nil {
			return captcha.Challenge{}, err
		}
		thumbs[i] = img
	}

	encoded, err := compose.Compose(thumbs, e.cfg.ImageSize, e.cfg.GapSize, e.cfg.GridLength)
	if err != nil {
		return captcha.Challenge{}, err
	}

	return captcha.Challenge{
		ID:         drawn.ID,
		Image:      encoded,
		Topic:      drawn.Topic,
		Answer:     drawn.Answer,
		ImageSize:  e.cfg.ImageSize,
		GapSize:    e.cfg.GapSize,
		GridLength: e.cfg.GridLength,
	}, nil
}
