package vectorstore

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Memory is an in-memory embedding table.
type Memory struct {
	name    string
	dim     int
	vectors map[string][]float64
}

// NewMemory creates an empty table. dim may be 0, in which case the first added vector
// fixes it.
func NewMemory(name string, dim int) *Memory {
	return &Memory{
		name:    name,
		dim:     dim,
		vectors: make(map[string][]float64),
	}
}

// Add stores vec for word, replacing any previous vector.
func (m *Memory) Add(word string, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for %q", word)
	}
	if m.dim == 0 {
		m.dim = len(vec)
	}
	if len(vec) != m.dim {
		return fmt.Errorf("vector for %q has %d dimensions, expected %d", word, len(vec), m.dim)
	}
	m.vectors[word] = append([]float64(nil), vec...)
	return nil
}

// Name returns the source name.
func (m *Memory) Name() string { return m.name }

// Dim returns the embedding dimensionality.
func (m *Memory) Dim() int { return m.dim }

// Len returns the number of stored words.
func (m *Memory) Len() int { return len(m.vectors) }

// Words returns the stored words in lexical order.
func (m *Memory) Words() []string {
	words := make([]string, 0, len(m.vectors))
	for w := range m.vectors {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Vector returns a copy of the vector stored for word.
func (m *Memory) Vector(word string) ([]float64, error) {
	for _, key := range lookupKeys(word) {
		if vec, ok := m.vectors[key]; ok {
			return append([]float64(nil), vec...), nil
		}
	}
	return nil, missing(m, word)
}

// Vectors returns one row per word.
func (m *Memory) Vectors(words []string) ([][]float64, error) {
	return batch(m, words)
}

// LoadText reads a GloVe or word2vec text file: one "word v1 v2 ..." line per word, with an
// optional leading "count dim" header line. A first line of two integers is taken as a header
// only when dim matches the width of the first vector; otherwise it is a 1-d entry.
func LoadText(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file %s: %w", path, err)
	}
	defer f.Close()

	mem := NewMemory(path, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	var header []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if lineNo == 1 && isHeader(fields) {
			header = fields
			continue
		}
		if header != nil {
			if dim, _ := strconv.Atoi(header[1]); dim != len(fields)-1 {
				if err := addTextRow(mem, path, 1, header); err != nil {
					return nil, err
				}
			}
			header = nil
		}

		if err := addTextRow(mem, path, lineNo, fields); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vector file %s: %w", path, err)
	}
	if header != nil {
		if err := addTextRow(mem, path, 1, header); err != nil {
			return nil, err
		}
	}
	if mem.Len() == 0 {
		return nil, fmt.Errorf("vector file %s contains no vectors", path)
	}
	return mem, nil
}

func addTextRow(mem *Memory, path string, lineNo int, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("%s:%d: expected a word followed by its vector", path, lineNo)
	}

	vec := make([]float64, len(fields)-1)
	for i, field := range fields[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: invalid component %q: %w", path, lineNo, field, err)
		}
		vec[i] = v
	}

	if err := mem.Add(norm.NFKC.String(fields[0]), vec); err != nil {
		return fmt.Errorf("%s:%d: %w", path, lineNo, err)
	}
	return nil
}

// isHeader reports whether fields look like a word2vec "count dim" header.
func isHeader(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}
