package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestPartitionValidate(t *testing.T) {
	candidates := []string{"river", "money", "loan", "shore"}

	tests := []struct {
		name      string
		partition Partition
		wantErr   string
	}{
		{"exact cover", Partition{{"river", "shore"}, {"money", "loan"}}, ""},
		{"single cluster", Partition{{"river", "money", "loan", "shore"}}, ""},
		{"empty cluster", Partition{{"river", "money", "loan", "shore"}, {}}, "cluster 2 is empty"},
		{"duplicate item", Partition{{"river", "shore"}, {"money", "loan", "river"}}, `"river" appears 2 times`},
		{"missing item", Partition{{"river", "shore"}, {"money"}}, `"loan" missing`},
		{"foreign item", Partition{{"river", "shore"}, {"money", "loan", "vault"}}, `"vault" appears 1 times, expected 0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.partition.Validate(candidates)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid partition, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPartitionCloneIsDeep(t *testing.T) {
	p := Partition{{"river", "shore"}, {"money"}}
	clone := p.Clone()
	clone[0][0] = "bank"

	if p[0][0] != "river" {
		t.Errorf("Expected original untouched, got %v", p)
	}
	if !reflect.DeepEqual(p.Sizes(), []int{2, 1}) {
		t.Errorf("Expected sizes [2 1], got %v", p.Sizes())
	}
}

func TestDatasetKeepsFirstPosition(t *testing.T) {
	d := NewDataset([]TargetWord{
		{Word: "bank", K: 2, Candidates: []string{"river", "money"}},
		{Word: "bright", K: 1, Candidates: []string{"smart"}},
		{Word: "bank", K: 3, Candidates: []string{"river", "money", "loan"}},
	})

	if d.Len() != 2 {
		t.Fatalf("Expected 2 words, got %d", d.Len())
	}
	if d.Words[0].Word != "bank" || d.Words[0].K != 3 {
		t.Errorf("Expected later bank to replace the first in place, got %+v", d.Words[0])
	}
	if _, ok := d.Lookup("crane"); ok {
		t.Error("Expected crane to be absent")
	}

	var nilDataset *Dataset
	if nilDataset.Len() != 0 {
		t.Error("Expected nil dataset to be empty")
	}
}

func TestClusteringsOrder(t *testing.T) {
	c := NewClusterings()
	c.Append("bright", Cluster{"smart"})
	c.Append("bank", Cluster{"river", "shore"})
	c.Append("bright", Cluster{"shiny"})
	c.Set("bank", Partition{{"money"}})

	if !reflect.DeepEqual(c.Words(), []string{"bright", "bank"}) {
		t.Errorf("Expected insertion order, got %v", c.Words())
	}
	bright, _ := c.Get("bright")
	if !reflect.DeepEqual(bright, Partition{{"smart"}, {"shiny"}}) {
		t.Errorf("Expected appended clusters, got %v", bright)
	}
	bank, _ := c.Get("bank")
	if !reflect.DeepEqual(bank, Partition{{"money"}}) {
		t.Errorf("Expected replaced partition, got %v", bank)
	}
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("lookup vectors: %w", &MissingVectorError{Word: "shore", Source: "glove.txt"})
	if !errors.Is(err, ErrMissingVector) {
		t.Error("Expected wrapped MissingVectorError to match ErrMissingVector")
	}
	if !strings.Contains(err.Error(), `missing vector for "shore" in glove.txt`) {
		t.Errorf("Unexpected message: %v", err)
	}

	fe := &FormatError{Path: "dev_input.txt", Line: 3, Text: "bank :: x", Reason: "missing field"}
	if fe.Error() != `dev_input.txt:3: missing field: "bank :: x"` {
		t.Errorf("Unexpected format error message: %s", fe.Error())
	}
	if (&FormatError{Line: 1, Reason: "r"}).Error() != `<input>:1: r: ""` {
		t.Error("Expected <input> placeholder without a path")
	}
}
