package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS vectors (
	word TEXT PRIMARY KEY,
	data BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore keeps embeddings in a single SQLite file, one float32 little-endian BLOB
// per word.
type SQLiteStore struct {
	db   *sql.DB
	path string
	dim  int
}

// OpenSQLite opens an existing, populated vector store for lookups. A missing file is
// reported as not found (matching os.ErrNotExist) and nothing is created.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("vector store not found: %w", err)
	}
	s, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if s.dim == 0 {
		_ = s.Close()
		return nil, fmt.Errorf("vector store %s is empty", path)
	}
	return s, nil
}

// CreateSQLite opens the vector store at path, creating the file and its directory when
// they do not exist yet.
func CreateSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return openSQLite(path)
}

func openSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging vector store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.loadDim(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) loadDim() error {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'dim'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading store dimensionality: %w", err)
	}
	dim, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid store dimensionality %q: %w", value, err)
	}
	s.dim = dim
	return nil
}

// Name returns the store path.
func (s *SQLiteStore) Name() string { return s.path }

// Dim returns the embedding dimensionality, 0 for an empty store.
func (s *SQLiteStore) Dim() int { return s.dim }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Count returns the number of stored words.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Import copies every vector of mem into the store in one transaction and returns the
// number of rows written.
func (s *SQLiteStore) Import(ctx context.Context, mem *Memory) (int, error) {
	if mem.Dim() == 0 || mem.Len() == 0 {
		return 0, fmt.Errorf("nothing to import from %s", mem.Name())
	}
	if s.dim != 0 && s.dim != mem.Dim() {
		return 0, fmt.Errorf("store has %d dimensions, %s has %d", s.dim, mem.Name(), mem.Dim())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO vectors (word, data) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, word := range mem.Words() {
		if _, err := stmt.ExecContext(ctx, word, encodeVector(mem.vectors[word])); err != nil {
			return n, fmt.Errorf("inserting %q: %w", word, err)
		}
		n++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('dim', ?)`, strconv.Itoa(mem.Dim())); err != nil {
		return n, fmt.Errorf("recording dimensionality: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("committing import: %w", err)
	}

	s.dim = mem.Dim()
	return n, nil
}

// Vector reads the vector stored for word.
func (s *SQLiteStore) Vector(word string) ([]float64, error) {
	for _, key := range lookupKeys(word) {
		var blob []byte
		err := s.db.QueryRow(`SELECT data FROM vectors WHERE word = ?`, key).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading vector for %q: %w", word, err)
		}
		return decodeVector(blob), nil
	}
	return nil, missing(s, word)
}

// Vectors returns one row per word.
func (s *SQLiteStore) Vectors(words []string) ([][]float64, error) {
	return batch(s, words)
}

func encodeVector(vec []float64) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

func decodeVector(buf []byte) []float64 {
	vec := make([]float64, len(buf)/4)
	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	}
	return vec
}
