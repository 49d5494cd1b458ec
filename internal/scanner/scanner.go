package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"filewarden/internal/cache"
	"filewarden/internal/config"
	"filewarden/internal/engine"
	"filewarden/internal/filesystem"
	"filewarden/internal/vault"
	"filewarden/pkg/models"
)

// Scanner coordinates one scan run: a single walker produces tasks, a fixed
// pool of workers hashes and classifies them, Clean results feed the cache
// and detections go to the vault. The unit of atomicity is one file's
// classify-then-quarantine sequence; there are no cross-file transactions.
type Scanner struct {
	cfg     *config.Config
	engine  *engine.Engine
	cache   *cache.CleanCache
	vault   *vault.Vault
	emitter models.Emitter
	logger  *zap.Logger
}

// New creates a scanner
func New(cfg *config.Config, eng *engine.Engine, cleanCache *cache.CleanCache, v *vault.Vault, emitter models.Emitter, logger *zap.Logger) *Scanner {
	if emitter == nil {
		emitter = models.NopEmitter{}
	}

	return &Scanner{
		cfg:     cfg,
		engine:  eng,
		cache:   cleanCache,
		vault:   v,
		emitter: emitter,
		logger:  logger,
	}
}

// fileResult is the outcome of one task
type fileResult struct {
	task       models.FileTask
	verdict    models.Verdict
	cacheHit   bool
	record     *models.QuarantineRecord
	isolateErr error
}

// Scan walks path and classifies every file against the given definition
// snapshot. Cancelling the context stops the walk and the workers; any
// in-flight isolation still reaches its commit-or-rollback point, and the
// partial report comes back flagged Cancelled.
func (s *Scanner) Scan(ctx context.Context, path string, defs *models.DefinitionSet) (*models.ScanReport, error) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	report := &models.ScanReport{
		ScanPath:          path,
		DefinitionVersion: defs.Version(),
		StartTime:         time.Now(),
		WorkersUsed:       workers,
	}

	s.logger.Info("Starting scan",
		zap.String("path", path),
		zap.String("definitions", defs.Version()),
		zap.Int("workers", workers))
	s.emitter.Emit(models.Event{Kind: models.EventScanStarted, Path: path, Timestamp: time.Now().UTC()})

	maxSize := filesystem.ParseSize(s.cfg.MaxSize)

	taskChan := make(chan models.FileTask, workers*2)
	resultChan := make(chan *fileResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, defs, taskChan, resultChan)
	}

	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go s.collect(&collectWg, resultChan, report)

	walker := filesystem.NewWalker(s.cfg.Exclude, s.logger)
	walkErr := walker.Walk(path, func(task models.FileTask) error {
		if maxSize > 0 && task.Size > maxSize {
			s.logger.Debug("File too large, skipping",
				zap.String("path", task.AbsolutePath),
				zap.Int64("size", task.Size))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case taskChan <- task:
			return nil
		}
	})

	close(taskChan)
	wg.Wait()
	close(resultChan)
	collectWg.Wait()

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Cancelled = ctx.Err() != nil

	s.emitter.Emit(models.Event{Kind: models.EventScanFinished, Path: path, Timestamp: time.Now().UTC()})
	s.logger.Info("Scan completed",
		zap.Duration("duration", report.Duration),
		zap.Int("files", report.TotalFiles),
		zap.Int("threats", report.ThreatsFound()),
		zap.Int("errors", report.Errors),
		zap.Bool("cancelled", report.Cancelled))

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
		return report, walkErr
	}

	return report, nil
}

// worker consumes tasks until the channel closes or the context is
// cancelled. A task already started runs to completion.
func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, defs *models.DefinitionSet, taskChan <-chan models.FileTask, resultChan chan<- *fileResult) {
	defer wg.Done()

	for task := range taskChan {
		select {
		case <-ctx.Done():
			return
		default:
			resultChan <- s.processTask(ctx, task, defs)
		}
	}
}

// processTask runs one file through read -> hash -> cache -> classify ->
// cache-or-isolate
func (s *Scanner) processTask(ctx context.Context, task models.FileTask, defs *models.DefinitionSet) *fileResult {
	result := &fileResult{task: task}

	readCtx := ctx
	if s.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.cfg.FileTimeout)
		defer cancel()
	}

	content, hash, err := filesystem.ReadAndHash(readCtx, task.AbsolutePath)
	if err != nil {
		// Unreadable, vanished or timed-out files never abort the batch
		result.verdict = models.ErrorVerdict(err)
		s.emitVerdict(task.AbsolutePath, result.verdict)
		return result
	}

	if s.cache.Lookup(hash, defs.Version()) {
		result.verdict = models.CleanVerdict()
		result.cacheHit = true
		s.emitVerdict(task.AbsolutePath, result.verdict)
		return result
	}

	result.verdict = s.engine.Classify(hash, content, defs)

	switch {
	case result.verdict.Kind == models.VerdictClean:
		s.cache.Record(hash, defs.Version())
	case result.verdict.IsThreat():
		record, err := s.vault.Isolate(task.AbsolutePath, hash, quarantineReason(result.verdict))
		if err != nil {
			result.isolateErr = err
			s.logger.Error("Quarantine failed",
				zap.String("path", task.AbsolutePath),
				zap.Error(err))
		} else {
			result.record = record
		}
	}

	s.emitVerdict(task.AbsolutePath, result.verdict)
	return result
}

// collect aggregates results into the report. It is the only writer, so the
// report needs no locking.
func (s *Scanner) collect(wg *sync.WaitGroup, resultChan <-chan *fileResult, report *models.ScanReport) {
	defer wg.Done()

	for result := range resultChan {
		report.Count(result.task.AbsolutePath, result.verdict)

		if result.cacheHit {
			report.CacheHits++
		}
		if result.record != nil {
			report.Records = append(report.Records, result.record)
		}
		if result.isolateErr != nil {
			report.Failures = append(report.Failures, &models.ScanFailure{
				Path:  result.task.AbsolutePath,
				Cause: fmt.Sprintf("quarantine failed: %v", result.isolateErr),
			})
		}
	}
}

func (s *Scanner) emitVerdict(path string, verdict models.Verdict) {
	s.emitter.Emit(models.Event{
		Kind:      models.EventFileVerdict,
		Path:      path,
		Verdict:   verdict.Kind.String(),
		Detail:    verdictDetail(verdict),
		Timestamp: time.Now().UTC(),
	})
}

// quarantineReason renders a verdict into the manifest reason field
func quarantineReason(v models.Verdict) string {
	switch v.Kind {
	case models.VerdictMalicious:
		return fmt.Sprintf("signature: %s", v.Signature.ThreatName)
	case models.VerdictSuspicious:
		if len(v.MatchedPatterns) > 0 {
			return fmt.Sprintf("heuristic: entropy=%.2f patterns=%s",
				v.Entropy, strings.Join(v.MatchedPatterns, ","))
		}
		return fmt.Sprintf("heuristic: entropy=%.2f", v.Entropy)
	default:
		return v.Kind.String()
	}
}

func verdictDetail(v models.Verdict) string {
	switch v.Kind {
	case models.VerdictMalicious:
		return v.Signature.ThreatName
	case models.VerdictSuspicious:
		return quarantineReason(v)
	case models.VerdictError:
		if v.Cause != nil {
			return v.Cause.Error()
		}
	}
	return ""
}
