package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVector is matched by every MissingVectorError.
	ErrMissingVector = errors.New("missing vector")

	// ErrInvalidClusterCount reports k <= 0, or k requested for a word without candidates.
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrNoOverlap reports that gold and predicted clusterings share no target word.
	ErrNoOverlap = errors.New("no overlapping target words in gold and predicted clusterings")

	// ErrInconsistentLengths reports items and labels of different lengths.
	ErrInconsistentLengths = errors.New("inconsistent lengths")

	// ErrInvalidDropCount reports a feature drop count that does not fit the embedding.
	ErrInvalidDropCount = errors.New("invalid drop count")
)

// FormatError describes a malformed line in an input or gold file.
type FormatError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	return fmt.Sprintf("%s:%d: %s: %q", path, e.Line, e.Reason, e.Text)
}

// MissingVectorError is returned when a word has no embedding in a source.
type MissingVectorError struct {
	Word   string
	Source string
}

func (e *MissingVectorError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing vector for %q", e.Word)
	}
	return fmt.Sprintf("missing vector for %q in %s", e.Word, e.Source)
}

// Is lets errors.Is(err, ErrMissingVector) match.
func (e *MissingVectorError) Is(target error) bool {
	return target == ErrMissingVector
}
