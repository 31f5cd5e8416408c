package vectorstore

import "strings"

// Concat joins several sources: the vector of a word is the vectors of every source laid
// end to end. A word must be present in all sources.
type Concat struct {
	sources []Source
}

// NewConcat creates a concatenated source.
func NewConcat(sources ...Source) *Concat {
	return &Concat{sources: sources}
}

// Name lists the underlying source names.
func (c *Concat) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Dim returns the summed dimensionality.
func (c *Concat) Dim() int {
	dim := 0
	for _, s := range c.sources {
		dim += s.Dim()
	}
	return dim
}

// Vector concatenates the vectors of word from every source.
func (c *Concat) Vector(word string) ([]float64, error) {
	out := make([]float64, 0, c.Dim())
	for _, s := range c.sources {
		vec, err := s.Vector(word)
		if err != nil {
			return nil, err
		}
		out = append(out, vec...)
	}
	return out, nil
}

// Vectors returns one concatenated row per word.
func (c *Concat) Vectors(words []string) ([][]float64, error) {
	return batch(c, words)
}

// Close closes the underlying sources.
func (c *Concat) Close() error {
	return Close(c.sources...)
}
