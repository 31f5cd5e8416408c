package vectorstore

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"paracluster/internal/core"
)

// Source is a read-only embedding lookup. All vectors of a source share Dim().
type Source interface {
	// Name identifies the source in logs and errors
	Name() string
	// Dim returns the embedding dimensionality
	Dim() int
	// Vector returns the embedding of one word
	Vector(word string) ([]float64, error)
	// Vectors returns one row per word, in input order
	Vectors(words []string) ([][]float64, error)
}

// Open opens an embedding source by file extension: .db, .sqlite and .sqlite3 are
// read from a SQLite store, anything else is parsed as a text vector file.
func Open(path string) (Source, error) {
	var (
		src Source
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		src, err = OpenSQLite(path)
	default:
		src, err = LoadText(path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// OpenAll opens every path and concatenates them when more than one is given.
func OpenAll(paths []string) (Source, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no vector sources configured")
	}

	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		src, err := Open(path)
		if err != nil {
			_ = Close(sources...)
			return nil, fmt.Errorf("failed to open vectors %s: %w", path, err)
		}
		sources = append(sources, src)
	}

	if len(sources) == 1 {
		return sources[0], nil
	}
	return NewConcat(sources...), nil
}

// Close closes every source that holds resources.
func Close(sources ...Source) error {
	var firstErr error
	for _, src := range sources {
		c, ok := src.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// lookupKeys returns the keys tried for word: the word itself, then its lower-cased form.
func lookupKeys(word string) []string {
	lower := strings.ToLower(word)
	if lower == word {
		return []string{word}
	}
	return []string{word, lower}
}

// batch implements Source.Vectors on top of Source.Vector.
func batch(src Source, words []string) ([][]float64, error) {
	rows := make([][]float64, len(words))
	for i, w := range words {
		vec, err := src.Vector(w)
		if err != nil {
			return nil, err
		}
		rows[i] = vec
	}
	return rows, nil
}

func missing(src Source, word string) error {
	return &core.MissingVectorError{Word: word, Source: src.Name()}
}
