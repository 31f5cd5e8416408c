package pipeline

import (
	"fmt"
)

// QualityGate represents a validation checkpoint applied to a finished run
type QualityGate interface {
	// Validate checks if the run meets the gate's requirement
	Validate() error

	// Name returns the gate name for logging
	Name() string

	// IsBlocking returns whether failure should fail the run
	IsBlocking() bool
}

// QualityGateConfig holds configuration for quality gates
type QualityGateConfig struct {
	MinScore        float64 // Minimum weighted paired F-score; 0 disables the gate
	MaxFailureRatio float64 // Maximum share of words that may fail; 1 disables the gate
	BlockOnFailure  bool    // Fail the run instead of warning
}

// DefaultQualityGateConfig returns default configuration: both gates disabled
func DefaultQualityGateConfig() QualityGateConfig {
	return QualityGateConfig{
		MinScore:        0,
		MaxFailureRatio: 1,
		BlockOnFailure:  false,
	}
}

// NewQualityGates returns the enabled gates for result
func NewQualityGates(config QualityGateConfig, result *Result) []QualityGate {
	var gates []QualityGate
	if config.MinScore > 0 {
		gates = append(gates, &ScoreGate{config: config, result: result})
	}
	if config.MaxFailureRatio < 1 {
		gates = append(gates, &FailureGate{config: config, result: result})
	}
	return gates
}

// ScoreGate requires a minimum weighted paired F-score. Runs without a score pass.
type ScoreGate struct {
	config QualityGateConfig
	result *Result
}

// Name returns the gate name
func (g *ScoreGate) Name() string { return "Score Gate" }

// IsBlocking returns whether this gate blocks the run
func (g *ScoreGate) IsBlocking() bool { return g.config.BlockOnFailure }

// Validate checks the weighted average against the minimum
func (g *ScoreGate) Validate() error {
	if g.result.Report == nil {
		return nil
	}
	if g.result.Report.Average < g.config.MinScore {
		return fmt.Errorf("weighted paired F-score below threshold: %.4f (min: %.4f)",
			g.result.Report.Average, g.config.MinScore)
	}
	return nil
}

// FailureGate bounds the share of target words that failed to cluster
type FailureGate struct {
	config QualityGateConfig
	result *Result
}

// Name returns the gate name
func (g *FailureGate) Name() string { return "Failure Gate" }

// IsBlocking returns whether this gate blocks the run
func (g *FailureGate) IsBlocking() bool { return g.config.BlockOnFailure }

// Validate checks the failed-word ratio against the maximum
func (g *FailureGate) Validate() error {
	total := g.result.Stats.TotalWords
	if total == 0 {
		return nil
	}
	ratio := float64(g.result.Stats.FailedWords) / float64(total)
	if ratio > g.config.MaxFailureRatio {
		return fmt.Errorf("too many failed words: %d/%d (max ratio: %.2f)",
			g.result.Stats.FailedWords, total, g.config.MaxFailureRatio)
	}
	return nil
}
