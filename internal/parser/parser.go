package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"paracluster/internal/core"
)

// FieldSeparator separates the three fields of every line.
const FieldSeparator = " :: "

const maxLineSize = 1 << 20

// Parser reads and writes the line-oriented paraphrase files:
//
//	input:  TARGET :: K :: PARAPHRASE1 PARAPHRASE2 ...
//	output: TARGET :: CLUSTER_INDEX :: PARAPHRASE1 PARAPHRASE2 ...
type Parser struct {
	// Normalize applies Unicode NFKC normalization to every token.
	Normalize bool
}

// NewParser creates a new Parser instance with normalization enabled.
func NewParser() *Parser {
	return &Parser{Normalize: true}
}

// LoadInputFile reads target words with their requested cluster count and candidates.
func (p *Parser) LoadInputFile(path string) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer f.Close()
	return p.ParseInput(f, path)
}

// ParseInput reads input lines from r. name is used in error messages.
func (p *Parser) ParseInput(r io.Reader, name string) (*core.Dataset, error) {
	var words []core.TargetWord
	err := p.scan(r, name, func(_ int, target string, number int, tokens []string) error {
		words = append(words, core.TargetWord{Word: target, K: number, Candidates: tokens})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return core.NewDataset(words), nil
}

// LoadClusteringsFile reads a gold or predicted clustering file.
func (p *Parser) LoadClusteringsFile(path string) (*core.Clusterings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clustering file %s: %w", path, err)
	}
	defer f.Close()
	return p.ParseClusterings(f, path)
}

// ParseClusterings reads clustering lines from r. Lines sharing a target word are
// appended as successive clusters of that word.
func (p *Parser) ParseClusterings(r io.Reader, name string) (*core.Clusterings, error) {
	clusterings := core.NewClusterings()
	err := p.scan(r, name, func(line int, target string, _ int, tokens []string) error {
		if len(tokens) == 0 {
			return &core.FormatError{Path: name, Line: line, Reason: "empty cluster"}
		}
		clusterings.Append(target, core.Cluster(tokens))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clusterings, nil
}

// WriteClusteringsFile writes clusterings to path, one line per cluster.
func (p *Parser) WriteClusteringsFile(path string, clusterings *core.Clusterings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := p.WriteClusterings(f, clusterings); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, err)
	}
	return nil
}

// WriteClusterings writes clusterings in insertion order. Cluster indices restart at 1
// for every target word.
func (p *Parser) WriteClusterings(w io.Writer, clusterings *core.Clusterings) error {
	bw := bufio.NewWriter(w)
	for _, word := range clusterings.Words() {
		partition, _ := clusterings.Get(word)
		for i, cluster := range partition {
			if _, err := fmt.Fprintf(bw, "%s%s%d%s%s\n",
				word, FieldSeparator, i+1, FieldSeparator, strings.Join(cluster, " ")); err != nil {
				return fmt.Errorf("failed to write clusters for %s: %w", word, err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush clusterings: %w", err)
	}
	return nil
}

type lineFunc func(line int, target string, number int, tokens []string) error

// scan splits every non-blank line into its three fields and hands them to fn.
func (p *Parser) scan(r io.Reader, name string, fn lineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}

		fields := strings.Split(raw, FieldSeparator)
		if len(fields) != 3 {
			return &core.FormatError{
				Path:   name,
				Line:   lineNo,
				Text:   raw,
				Reason: fmt.Sprintf("expected 3 fields separated by %q, got %d", FieldSeparator, len(fields)),
			}
		}

		target := p.normalize(strings.TrimSpace(fields[0]))
		if target == "" {
			return &core.FormatError{Path: name, Line: lineNo, Text: raw, Reason: "empty target word"}
		}

		number, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return &core.FormatError{Path: name, Line: lineNo, Text: raw, Reason: "second field is not an integer"}
		}

		tokens := strings.Fields(fields[2])
		for i, tok := range tokens {
			tokens[i] = p.normalize(tok)
		}

		if err := fn(lineNo, target, number, tokens); err != nil {
			if fe, ok := err.(*core.FormatError); ok && fe.Text == "" {
				fe.Text = raw
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	return nil
}

func (p *Parser) normalize(s string) string {
	if !p.Normalize {
		return s
	}
	return norm.NFKC.String(s)
}
