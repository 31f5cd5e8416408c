// Package similarity compares embedding cosine similarity with human word-similarity
// judgements such as SimLex-999.
package similarity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"paracluster/internal/core"
	"paracluster/internal/vectorstore"
)

// ScoreColumn is the human score column of SimLex-999.
const ScoreColumn = "SimLex999"

// JudgedPair is a word pair with a human similarity score.
type JudgedPair struct {
	Word1 string  `json:"word1" yaml:"word1"`
	Word2 string  `json:"word2" yaml:"word2"`
	Human float64 `json:"human" yaml:"human"`
}

// ScoredPair adds the embedding cosine similarity.
type ScoredPair struct {
	JudgedPair `yaml:",inline"`
	Vector     float64 `json:"vector" yaml:"vector"`
}

// Cosine returns the cosine similarity of a and b, or 0 when either is all zeros.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vectors of length %d and %d", core.ErrInconsistentLengths, len(a), len(b))
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (na * nb), nil
}

// LoadPairs reads a tab-separated judgement file with a header row.
func LoadPairs(path string) ([]JudgedPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pairs file: %w", err)
	}
	defer f.Close()
	return ParsePairs(f, path)
}

// ParsePairs reads word1, word2 and the score column from tab-separated rows. The score
// column is ScoreColumn when the header has it and the third column otherwise.
func ParsePairs(r io.Reader, name string) ([]JudgedPair, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	w1, w2, score := 0, 1, 2
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "word1":
			w1 = i
		case "word2":
			w2 = i
		case ScoreColumn:
			score = i
		}
	}
	need := max(w1, w2, score) + 1

	var pairs []JudgedPair
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(record) < need {
			return nil, &core.FormatError{Path: name, Line: line, Text: strings.Join(record, "\t"),
				Reason: fmt.Sprintf("expected at least %d columns", need)}
		}
		human, err := strconv.ParseFloat(strings.TrimSpace(record[score]), 64)
		if err != nil {
			return nil, &core.FormatError{Path: name, Line: line, Text: strings.Join(record, "\t"),
				Reason: "score is not a number"}
		}
		pairs = append(pairs, JudgedPair{
			Word1: strings.TrimSpace(record[w1]),
			Word2: strings.TrimSpace(record[w2]),
			Human: human,
		})
	}
	return pairs, nil
}

// KendallTau returns Kendall's tau-b of x and y and the two-sided p-value of the
// normal approximation with tie correction.
func KendallTau(x, y []float64) (float64, float64, error) {
	n := len(x)
	if n != len(y) {
		return 0, 0, fmt.Errorf("%w: %d and %d values", core.ErrInconsistentLengths, n, len(y))
	}
	if n < 2 {
		return 0, 0, fmt.Errorf("kendall tau needs at least 2 observations, got %d", n)
	}

	var concordant, discordant float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sign(x[j]-x[i]) * sign(y[j]-y[i])
			switch {
			case s > 0:
				concordant++
			case s < 0:
				discordant++
			}
		}
	}

	xt := tieSums(x)
	yt := tieSums(y)
	nf := float64(n)
	n0 := nf * (nf - 1) / 2
	denom := math.Sqrt((n0 - xt.pairs) * (n0 - yt.pairs))
	if denom == 0 {
		return 0, 0, fmt.Errorf("kendall tau undefined for constant input")
	}
	tau := (concordant - discordant) / denom

	variance := (nf*(nf-1)*(2*nf+5)-xt.v0-yt.v0)/18 +
		(2*xt.pairs)*(2*yt.pairs)/(2*nf*(nf-1))
	if n > 2 {
		variance += xt.v2 * yt.v2 / (9 * nf * (nf - 1) * (nf - 2))
	}
	z := (concordant - discordant) / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	return tau, math.Min(p, 1), nil
}

type ties struct {
	pairs float64 // sum t(t-1)/2
	v0    float64 // sum t(t-1)(2t+5)
	v2    float64 // sum t(t-1)(t-2)
}

func tieSums(values []float64) ties {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out ties
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if t := float64(j - i); t > 1 {
			out.pairs += t * (t - 1) / 2
			out.v0 += t * (t - 1) * (2*t + 5)
			out.v2 += t * (t - 1) * (t - 2)
		}
		i = j
	}
	return out
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Options controls Correlate.
type Options struct {
	SkipMissing bool // leave out pairs with an unknown word instead of failing
}

// Correlation is the agreement between one embedding source and human judgements.
type Correlation struct {
	Source  string       `json:"source" yaml:"source"`
	Tau     float64      `json:"tau" yaml:"tau"`
	PValue  float64      `json:"p_value" yaml:"p_value"`
	Pairs   []ScoredPair `json:"pairs" yaml:"pairs"`
	Skipped []JudgedPair `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Correlate scores every pair with src and computes Kendall's tau against the human
// scores. An unknown word fails with a MissingVectorError unless opts.SkipMissing is set.
func Correlate(pairs []JudgedPair, src vectorstore.Source, opts Options) (*Correlation, error) {
	c := &Correlation{Source: src.Name()}
	for _, pair := range pairs {
		vecs, err := src.Vectors([]string{pair.Word1, pair.Word2})
		if err != nil {
			if opts.SkipMissing && errors.Is(err, core.ErrMissingVector) {
				c.Skipped = append(c.Skipped, pair)
				continue
			}
			return nil, fmt.Errorf("pair %s/%s: %w", pair.Word1, pair.Word2, err)
		}
		sim, err := Cosine(vecs[0], vecs[1])
		if err != nil {
			return nil, err
		}
		c.Pairs = append(c.Pairs, ScoredPair{JudgedPair: pair, Vector: sim})
	}

	human := make([]float64, len(c.Pairs))
	vector := make([]float64, len(c.Pairs))
	for i, p := range c.Pairs {
		human[i] = p.Human
		vector[i] = p.Vector
	}
	tau, p, err := KendallTau(human, vector)
	if err != nil {
		return nil, fmt.Errorf("correlation for %s: %w", src.Name(), err)
	}
	c.Tau, c.PValue = tau, p
	return c, nil
}

// MostSimilar returns the n pairs with the highest human (or vector) score, first
// occurrence winning ties.
func (c *Correlation) MostSimilar(n int, byVector bool) []ScoredPair {
	return c.ranked(n, byVector, true)
}

// LeastSimilar returns the n pairs with the lowest human (or vector) score.
func (c *Correlation) LeastSimilar(n int, byVector bool) []ScoredPair {
	return c.ranked(n, byVector, false)
}

func (c *Correlation) ranked(n int, byVector, descending bool) []ScoredPair {
	out := append([]ScoredPair(nil), c.Pairs...)
	key := func(p ScoredPair) float64 {
		if byVector {
			return p.Vector
		}
		return p.Human
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
