package engine

import (
	"bytes"
	"math"

	"filewarden/pkg/models"
)

// PatternRule is one fixed byte pattern that marks content suspicious
type PatternRule struct {
	Name    string
	Pattern []byte
}

// DefaultPatternRules returns the built-in rule set: packer stubs and API
// or shell strings that rarely appear in benign files
func DefaultPatternRules() []PatternRule {
	return []PatternRule{
		{Name: "upx-packer-stub", Pattern: []byte("UPX!")},
		{Name: "mpress-packer-stub", Pattern: []byte("MPRESS1")},
		{Name: "remote-thread-injection", Pattern: []byte("CreateRemoteThread")},
		{Name: "process-memory-write", Pattern: []byte("WriteProcessMemory")},
		{Name: "powershell-encoded-command", Pattern: []byte("powershell -enc")},
		{Name: "eval-base64", Pattern: []byte("eval(base64_decode(")},
		{Name: "shell-recursive-wipe", Pattern: []byte("rm -rf /")},
		{Name: "mshta-launcher", Pattern: []byte("mshta http")},
	}
}

// HeuristicResult carries the evidence gathered from one file's content
type HeuristicResult struct {
	Entropy         float64
	MatchedPatterns []string
}

// HeuristicChecker flags files by Shannon entropy and fixed byte patterns.
// Analysis is bounded to a prefix window so one oversized file cannot
// dominate scan latency.
type HeuristicChecker struct {
	threshold float64
	window    int
	rules     []PatternRule
}

// NewHeuristicChecker creates a heuristic checker. window <= 0 analyzes the
// whole file.
func NewHeuristicChecker(threshold float64, window int, rules []PatternRule) *HeuristicChecker {
	return &HeuristicChecker{
		threshold: threshold,
		window:    window,
		rules:     rules,
	}
}

// Name returns the checker name
func (c *HeuristicChecker) Name() string {
	return "heuristic"
}

// Check returns Suspicious when entropy reaches the threshold or any
// pattern rule matches
func (c *HeuristicChecker) Check(_ models.FileHash, content []byte, _ *models.DefinitionSet) (models.Verdict, bool) {
	result := c.Analyze(content)

	if result.Entropy >= c.threshold || len(result.MatchedPatterns) > 0 {
		return models.SuspiciousVerdict(result.Entropy, result.MatchedPatterns), true
	}

	return models.Verdict{}, false
}

// Analyze computes entropy and pattern matches over the bounded window
func (c *HeuristicChecker) Analyze(content []byte) HeuristicResult {
	window := content
	if c.window > 0 && len(window) > c.window {
		window = window[:c.window]
	}

	result := HeuristicResult{
		Entropy: CalculateEntropy(window),
	}

	for _, rule := range c.rules {
		if bytes.Contains(window, rule.Pattern) {
			result.MatchedPatterns = append(result.MatchedPatterns, rule.Name)
		}
	}

	return result
}

// CalculateEntropy calculates Shannon entropy over the byte-value frequency
// distribution. Returns a value between 0 (one repeated byte value) and 8
// (uniformly random bytes).
func CalculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	length := float64(len(data))
	var entropy float64

	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}
