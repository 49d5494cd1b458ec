package engine

import (
	"go.uber.org/zap"

	"filewarden/pkg/models"
)

// Checker is one detection capability. Check returns a verdict and whether
// that verdict is conclusive; the engine folds checkers in order and keeps
// the first conclusive result.
type Checker interface {
	// Name returns the checker name
	Name() string

	// Check classifies content against a definition snapshot
	Check(hash models.FileHash, content []byte, defs *models.DefinitionSet) (models.Verdict, bool)
}

// Engine classifies one file's bytes and hashes against a DefinitionSet.
// Classification is pure: identical bytes and an identical definition
// version always produce the same verdict.
type Engine struct {
	checkers []Checker
	logger   *zap.Logger
}

// Options configures the heuristic checker
type Options struct {
	EntropyThreshold float64 // suspicious at or above this value
	EntropyWindow    int     // prefix bytes analyzed for very large files, 0 means whole file
}

// New creates an engine with the standard checker chain: signature match
// first, heuristics second, so a signature hit always wins.
func New(opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		checkers: []Checker{
			NewSignatureChecker(),
			NewHeuristicChecker(opts.EntropyThreshold, opts.EntropyWindow, DefaultPatternRules()),
		},
		logger: logger,
	}
}

// Classify runs the checker chain and returns the first conclusive verdict,
// or Clean when no checker objects.
func (e *Engine) Classify(hash models.FileHash, content []byte, defs *models.DefinitionSet) models.Verdict {
	for _, c := range e.checkers {
		verdict, conclusive := c.Check(hash, content, defs)
		if !conclusive {
			continue
		}

		e.logger.Debug("Checker produced verdict",
			zap.String("checker", c.Name()),
			zap.String("verdict", verdict.Kind.String()))
		return verdict
	}

	return models.CleanVerdict()
}
