package clustering

import (
	"errors"
	"reflect"
	"testing"

	"paracluster/internal/core"
)

func TestAssign(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		labels   []int
		hint     int
		expected core.Partition
	}{
		{
			name:     "groups by label keeping item order",
			items:    []string{"river", "money", "shore", "loan"},
			labels:   []int{0, 1, 0, 1},
			hint:     2,
			expected: core.Partition{{"river", "shore"}, {"money", "loan"}},
		},
		{
			name:     "unused labels produce no cluster",
			items:    []string{"a", "b", "c"},
			labels:   []int{3, 0, 3},
			hint:     6,
			expected: core.Partition{{"b"}, {"a", "c"}},
		},
		{
			name:     "labels beyond the hint",
			items:    []string{"a", "b", "c"},
			labels:   []int{0, 5, 2},
			hint:     2,
			expected: core.Partition{{"a"}, {"c"}, {"b"}},
		},
		{
			name:     "no hint sorts labels",
			items:    []string{"a", "b", "c", "d"},
			labels:   []int{2, 1, 2, 0},
			hint:     0,
			expected: core.Partition{{"d"}, {"b"}, {"a", "c"}},
		},
		{
			name:     "noise gathered last",
			items:    []string{"a", "b", "c", "d"},
			labels:   []int{-1, 0, -1, 0},
			expected: core.Partition{{"b", "d"}, {"a", "c"}},
		},
		{
			name:     "empty input",
			items:    nil,
			labels:   nil,
			expected: core.Partition{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(tt.items, tt.labels, tt.hint)
			if err != nil {
				t.Fatalf("Assign failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
			if err := got.Validate(tt.items); err != nil {
				t.Errorf("Partition invalid: %v", err)
			}
		})
	}
}

func TestAssignNoiseSingletons(t *testing.T) {
	got, err := AssignWithNoise([]string{"a", "b", "c"}, []int{-1, 0, -1}, 0, NoiseSingletons)
	if err != nil {
		t.Fatalf("AssignWithNoise failed: %v", err)
	}
	expected := core.Partition{{"b"}, {"a"}, {"c"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestAssignInconsistentLengths(t *testing.T) {
	_, err := Assign([]string{"a", "b"}, []int{0}, 1)
	if !errors.Is(err, core.ErrInconsistentLengths) {
		t.Errorf("Expected ErrInconsistentLengths, got %v", err)
	}
}

func TestCountLabels(t *testing.T) {
	if got := CountLabels([]int{0, 2, 2, -1, -1}); got != 3 {
		t.Errorf("Expected 3 labels, got %d", got)
	}
}
