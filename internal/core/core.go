package core

import "fmt"

// TargetWord is a word sense to cluster together with its paraphrase candidates.
type TargetWord struct {
	Word       string   `json:"word" yaml:"word"`             // Target word key
	K          int      `json:"k,omitempty" yaml:"k,omitempty"` // Requested cluster count (0 = absent)
	Candidates []string `json:"candidates" yaml:"candidates"` // Paraphrases in input order
}

// Dataset holds target words in the order they were loaded.
type Dataset struct {
	Words []TargetWord
	index map[string]int
}

// NewDataset builds a dataset and indexes it by word. Later duplicates replace earlier ones
// in place, so file order of first appearance is kept.
func NewDataset(words []TargetWord) *Dataset {
	d := &Dataset{index: make(map[string]int, len(words))}
	for _, w := range words {
		if i, ok := d.index[w.Word]; ok {
			d.Words[i] = w
			continue
		}
		d.index[w.Word] = len(d.Words)
		d.Words = append(d.Words, w)
	}
	return d
}

// Lookup returns the target word with the given key.
func (d *Dataset) Lookup(word string) (TargetWord, bool) {
	if d == nil {
		return TargetWord{}, false
	}
	i, ok := d.index[word]
	if !ok {
		return TargetWord{}, false
	}
	return d.Words[i], true
}

// Len returns the number of target words.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Words)
}

// Cluster is a group of paraphrases that share a sense.
type Cluster []string

// Partition is an ordered list of non-empty clusters.
type Partition []Cluster

// Sizes returns the number of items in each cluster.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, c := range p {
		sizes[i] = len(c)
	}
	return sizes
}

// Clone returns a deep copy.
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for i, c := range p {
		out[i] = append(Cluster(nil), c...)
	}
	return out
}

// Validate checks that p covers candidates exactly once and holds no empty cluster.
func (p Partition) Validate(candidates []string) error {
	want := make(map[string]int, len(candidates))
	for _, c := range candidates {
		want[c]++
	}

	got := make(map[string]int, len(candidates))
	for i, c := range p {
		if len(c) == 0 {
			return fmt.Errorf("cluster %d is empty", i+1)
		}
		for _, item := range c {
			got[item]++
		}
	}

	for item, n := range got {
		if want[item] != n {
			return fmt.Errorf("item %q appears %d times, expected %d", item, n, want[item])
		}
	}
	for item, n := range want {
		if got[item] != n {
			return fmt.Errorf("item %q missing from partition", item)
		}
	}
	return nil
}

// Clusterings maps target words to partitions, remembering insertion order.
type Clusterings struct {
	order []string
	byKey map[string]Partition
}

// NewClusterings creates an empty set of clusterings.
func NewClusterings() *Clusterings {
	return &Clusterings{byKey: make(map[string]Partition)}
}

// Set stores the partition for word. Re-setting a word keeps its original position.
func (c *Clusterings) Set(word string, p Partition) {
	if _, ok := c.byKey[word]; !ok {
		c.order = append(c.order, word)
	}
	c.byKey[word] = p
}

// Append adds one cluster to the partition of word.
func (c *Clusterings) Append(word string, cluster Cluster) {
	c.Set(word, append(c.byKey[word], cluster))
}

// Get returns the partition stored for word.
func (c *Clusterings) Get(word string) (Partition, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.byKey[word]
	return p, ok
}

// Words returns the stored words in insertion order.
func (c *Clusterings) Words() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Len returns the number of stored words.
func (c *Clusterings) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
