package captcha

import "fmt"

// Kind identifies the category of an Error, mirroring the fixed error
// taxonomy the engine is specified against: scan failures abort startup,
// generation failures are retried by the worker loop, and ParseUUID
// surfaces only at the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindScan
	KindCollectionName
	KindInsufficientCollections
	KindOpenImage
	KindOpenThumbnail
	KindGenerateImage
	KindParseUUID
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "Scan"
	case KindCollectionName:
		return "CollectionName"
	case KindInsufficientCollections:
		return "InsufficientCollections"
	case KindOpenImage:
		return "OpenImage"
	case KindOpenThumbnail:
		return "OpenThumbnail"
	case KindGenerateImage:
		return "GenerateImage"
	case KindParseUUID:
		return "ParseUuid"
	default:
		return "Unknown"
	}
}

// Error is the engine's single error type. Path is populated for the
// per-file error kinds; it is empty for kinds that are not path-scoped.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func NewScanError(path string, err error) error {
	return &Error{Kind: KindScan, Path: path, Err: err}
}

func NewCollectionNameError(path string) error {
	return &Error{Kind: KindCollectionName, Path: path}
}

func ErrInsufficientCollections() error {
	return &Error{Kind: KindInsufficientCollections}
}

func NewOpenImageError(path string, err error) error {
	return &Error{Kind: KindOpenImage, Path: path, Err: err}
}

func NewOpenThumbnailError(path string, err error) error {
	return &Error{Kind: KindOpenThumbnail, Path: path, Err: err}
}

func NewGenerateImageError(err error) error {
	return &Error{Kind: KindGenerateImage, Err: err}
}

func NewParseUUIDError(err error) error {
	return &Error{Kind: KindParseUUID, Err: err}
}

// Is lets callers write errors.Is(err, captcha.ErrInsufficientCollections())
// style checks by comparing Kind rather than pointer identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
