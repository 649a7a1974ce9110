package captcha

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorIsComparesByKind(t *testing.T) {
	t.Parallel()

	err := NewOpenImageError("a.jpg", errors.New("boom"))
	if !errors.Is(err, NewOpenImageError("b.jpg", nil)) {
		t.Fatal("errors of the same Kind should compare equal via errors.Is")
	}
	if errors.Is(err, ErrInsufficientCollections()) {
		t.Fatal("errors of a different Kind should not compare equal")
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewGenerateImageError(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the wrapped cause")
	}
}

func TestErrorMessageIncludesPath(t *testing.T) {
	t.Parallel()

	err := NewScanError("/images/cats", errors.New("permission denied"))
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected a non-empty error message")
	}
	if !strings.Contains(msg, "/images/cats") {
		t.Fatalf("Error() = %q, want it to include the path %q", msg, "/images/cats")
	}
}
