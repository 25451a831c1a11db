// Package pipeline implements valknut's Pipeline Executor (§4.6): the
// staged, bounded-parallel driver that turns a project root into a scored,
// rolled-up UnifiedHierarchy — Discovery, Parse, Index, Feature fanout
// (clone detection included as one of the fanned-out extractors), Score,
// Rollup, and Emit.
package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sibyllinesoft/valknut/internal/config"
	verrors "github.com/sibyllinesoft/valknut/internal/errors"
	"github.com/sibyllinesoft/valknut/internal/features"
	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/langs"
	"github.com/sibyllinesoft/valknut/internal/lsh"
	"github.com/sibyllinesoft/valknut/internal/scoring"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// Stage names the six pipeline stages used for progress reporting and
// metrics labeling. Clone detection runs inside StageFeatures and emitting
// results is left to the caller, so neither has a Stage of its own.
type Stage string

const (
	StageDiscovery Stage = "discovery"
	StageParse     Stage = "parse"
	StageIndex     Stage = "index"
	StageFeatures  Stage = "features"
	StageScore     Stage = "score"
	StageRollup    Stage = "rollup"
)

const defaultSoftFileTimeout = 30 * time.Second

// ProgressEvent reports how far one stage has advanced. Consumers read
// from a buffered channel; the executor never blocks on a slow consumer
// (§5) — the oldest unread event is dropped in favor of the newest.
type ProgressEvent struct {
	Stage     Stage
	Completed int
	Total     int
}

// Options configures one Execute call.
type Options struct {
	Root   string
	Config *config.Config

	// Concurrency bounds the number of files in flight at once. 0 uses
	// runtime.GOMAXPROCS(0).
	Concurrency int
	// SoftFileTimeout bounds a single file's parse; 0 uses 30s (§5).
	SoftFileTimeout time.Duration
	// HardBudget bounds the whole run; 0 means unbounded. Exceeding it
	// cancels remaining work and the run returns whatever it has.
	HardBudget time.Duration
	// Progress receives stage advancement; sends never block (§5). Nil is
	// fine — progress is simply not reported.
	Progress chan<- ProgressEvent
	// Cache overrides the default ParseCache; nil builds a fresh one.
	Cache *ParseCache
}

// Run is the complete output of one Execute call.
type Run struct {
	Index       *index.Index
	Accumulator *features.Accumulator
	Scores      map[types.EntityID]*types.PriorityScore
	Hierarchy   *types.UnifiedHierarchy
	Warnings    []error
	CacheStats  CacheStats
}

// Execute runs the full pipeline against opts.Root and returns the scored,
// rolled-up result. Recoverable per-file/per-extractor errors are
// collected into Run.Warnings rather than aborting; only Discovery errors
// and context cancellation abort the whole run.
func Execute(ctx context.Context, opts Options) (*Run, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.SoftFileTimeout <= 0 {
		opts.SoftFileTimeout = defaultSoftFileTimeout
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewParseCache(0, 0)
	}

	if opts.HardBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HardBudget)
		defer cancel()
	}

	run := &Run{}

	paths, err := timeStage(StageDiscovery, func() ([]string, error) {
		return Discover(opts.Root, opts.Config.Analysis)
	})
	if err != nil {
		return nil, err
	}
	pipeMetrics.init()
	pipeMetrics.filesDiscovered.Add(float64(len(paths)))
	reportProgress(opts.Progress, StageDiscovery, len(paths), len(paths))

	builder := index.NewBuilder()
	warnings, err := parseAll(ctx, opts, paths, cache, builder)
	run.Warnings = append(run.Warnings, warnings...)
	if err != nil {
		return run, err
	}

	var ix *index.Index
	_, _ = timeStage(StageIndex, func() (struct{}, error) {
		ix = builder.Build()
		return struct{}{}, nil
	})
	run.Index = ix
	run.CacheStats = cache.Stats()
	reportProgress(opts.Progress, StageIndex, ix.Len(), ix.Len())

	acc, featWarnings, err := runExtractors(ctx, opts, ix)
	run.Warnings = append(run.Warnings, featWarnings...)
	if err != nil {
		return run, err
	}
	if schemaErr := features.ValidateSchema(acc); schemaErr != nil {
		run.Warnings = append(run.Warnings, schemaErr)
	}
	run.Accumulator = acc
	reportProgress(opts.Progress, StageFeatures, ix.Len(), ix.Len())

	scoreEngine := scoring.NewEngine(opts.Config.Scoring.Weights)
	var scores map[types.EntityID]*types.PriorityScore
	_, _ = timeStage(StageScore, func() (struct{}, error) {
		scores = scoreEngine.Score(ix, acc)
		return struct{}{}, nil
	})
	run.Scores = scores
	reportProgress(opts.Progress, StageScore, len(scores), len(scores))

	var hierarchy *types.UnifiedHierarchy
	_, _ = timeStage(StageRollup, func() (struct{}, error) {
		hierarchy = scoring.BuildHierarchy(ix, scores, opts.Root)
		return struct{}{}, nil
	})
	run.Hierarchy = hierarchy
	reportProgress(opts.Progress, StageRollup, 1, 1)

	return run, nil
}

// reportProgress sends a non-blocking, drop-oldest progress update: if the
// channel's buffer is full, the oldest queued event is discarded to make
// room rather than stalling the pipeline on a slow consumer (§5).
func reportProgress(ch chan<- ProgressEvent, stage Stage, completed, total int) {
	if ch == nil {
		return
	}
	event := ProgressEvent{Stage: stage, Completed: completed, Total: total}
	for {
		select {
		case ch <- event:
			return
		default:
		}
		select {
		case <-ch:
		default:
			return
		}
	}
}

func timeStage[T any](stage Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := fn()
	recordStageDuration(string(stage), time.Since(start).Seconds())
	return result, err
}

// parseAll runs the Parse stage: bounded-parallel per-file parsing via
// errgroup, feeding successful EntityTrees into builder. Matches the
// teacher's errgroup.WithContext + SetLimit idiom
// (internal/mcp/integration_test.go) for structured, backpressured
// concurrency rather than an unbounded goroutine-per-file fanout.
func parseAll(ctx context.Context, opts Options, paths []string, cache *ParseCache, builder *index.Builder) ([]error, error) {
	profiles := langs.Registry()
	pool := newAdapterPool(profiles)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	var mu sync.Mutex
	var warnings []error
	var completed int

	for _, relPath := range paths {
		relPath := relPath
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			tree, warnErr := parseOne(gctx, opts.Root, relPath, profiles, pool, cache, opts.SoftFileTimeout)
			if tree != nil {
				builder.Add(tree)
			}
			mu.Lock()
			completed++
			n := completed
			if warnErr != nil {
				warnings = append(warnings, warnErr)
			}
			mu.Unlock()
			reportProgress(opts.Progress, StageParse, n, len(paths))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return warnings, verrors.NewCancelledError(string(StageParse))
	}
	return warnings, nil
}

// parseOne reads, cache-checks and parses a single file. A non-nil error
// return is always a recoverable warning (timeout or unreadable file); the
// caller never treats it as fatal.
func parseOne(ctx context.Context, root, relPath string, profiles []*langs.Profile, pool *adapterPool, cache *ParseCache, softTimeout time.Duration) (*types.EntityTree, error) {
	content, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return nil, verrors.NewParseError(relPath, 0, 0, err)
	}

	profile := langs.ForExtension(profiles, filepath.Ext(relPath))
	if profile == nil {
		return unparseableTree(relPath, "", content), nil
	}

	if tree, unparseable, hit := cache.Get(content, profile.Name, adapterVersion); hit {
		pipeMetrics.cacheHits.Inc()
		if unparseable {
			return unparseableTree(relPath, profile.Name, content), nil
		}
		pipeMetrics.filesParsed.Inc()
		return tree, nil
	}
	pipeMetrics.cacheMisses.Inc()

	adapter := pool.get(profile.Name)
	defer pool.put(profile.Name, adapter)
	if adapter == nil {
		cache.Put(content, profile.Name, adapterVersion, nil, true)
		return unparseableTree(relPath, profile.Name, content), nil
	}

	type parseResult struct {
		tree *types.EntityTree
		err  error
	}
	resCh := make(chan parseResult, 1)
	go func() {
		tree, err := adapter.Parse(relPath, content)
		resCh <- parseResult{tree, err}
	}()

	timer := time.NewTimer(softTimeout)
	defer timer.Stop()

	select {
	case res := <-resCh:
		if res.err != nil {
			cache.Put(content, profile.Name, adapterVersion, nil, true)
			return unparseableTree(relPath, profile.Name, content), verrors.NewParseError(relPath, 0, 0, res.err)
		}
		cache.Put(content, profile.Name, adapterVersion, res.tree, false)
		pipeMetrics.filesParsed.Inc()
		return res.tree, nil
	case <-timer.C:
		pipeMetrics.filesTimedOut.Inc()
		return unparseableTree(relPath, profile.Name, content), verrors.NewTimeoutError(relPath, softTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// unparseableTree builds the single-file-entity fallback the adapter
// itself produces on a total parse failure (§4.1 edge case): a file is
// never silently dropped, it is recorded as Unparseable instead.
func unparseableTree(path, language string, content []byte) *types.EntityTree {
	id := types.NewFileEntityID(path)
	entity := &types.Entity{
		ID:          id,
		Kind:        types.KindFile,
		Path:        path,
		Range:       types.ByteRange{Start: 0, End: len(content)},
		Source:      content,
		Name:        path,
		RawName:     path,
		Language:    language,
		Unparseable: true,
	}
	return &types.EntityTree{Path: path, Language: language, Entities: []*types.Entity{entity}}
}

const adapterVersion = 1

// adapterPool hands out one *langs.Adapter per (goroutine, language) pair.
// tree_sitter.Parser is not safe for concurrent use (internal/langs/adapter.go),
// so each worker borrows an adapter for the duration of one file's parse and
// returns it rather than sharing a single adapter across the whole fanout.
type adapterPool struct {
	pools map[string]*sync.Pool
}

func newAdapterPool(profiles []*langs.Profile) *adapterPool {
	pools := make(map[string]*sync.Pool, len(profiles))
	for _, p := range profiles {
		profile := p
		pools[profile.Name] = &sync.Pool{New: func() interface{} { return langs.NewAdapter(profile) }}
	}
	return &adapterPool{pools: pools}
}

func (p *adapterPool) get(language string) *langs.Adapter {
	pool, ok := p.pools[language]
	if !ok {
		return nil
	}
	adapter, _ := pool.Get().(*langs.Adapter)
	return adapter
}

func (p *adapterPool) put(language string, adapter *langs.Adapter) {
	if adapter == nil {
		return
	}
	if pool, ok := p.pools[language]; ok {
		pool.Put(adapter)
	}
}

// runExtractors runs every configured extractor (§4.3) concurrently; each
// scans the whole index independently and writes into a shared
// Accumulator, which is safe for concurrent writers. The "clones" module
// runs the LSH Clone Engine (§4.4) as one of these extractors rather than
// as a separate stage, since CloneExtractor already wraps the calibrated
// engine end to end.
func runExtractors(ctx context.Context, opts Options, ix *index.Index) (*features.Accumulator, []error, error) {
	acc := features.NewAccumulator()
	extractors := selectExtractors(opts.Config, ix)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var warnings []error

	for _, ext := range extractors {
		ext := ext
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			start := time.Now()
			err := ext.Run(ix, acc)
			recordStageDuration(string(StageFeatures)+":"+ext.Name(), time.Since(start).Seconds())
			if err != nil {
				mu.Lock()
				warnings = append(warnings, verrors.NewExtractorError(ext.Name(), "", err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return acc, warnings, verrors.NewCancelledError(string(StageFeatures))
	}
	return acc, warnings, nil
}

func selectExtractors(cfg *config.Config, ix *index.Index) []features.Extractor {
	enabled := make(map[string]bool, len(cfg.Analysis.Modules))
	for _, m := range cfg.Analysis.Modules {
		enabled[m] = true
	}

	var extractors []features.Extractor
	if enabled["complexity"] {
		extractors = append(extractors, features.NewComplexityExtractor())
	}
	if enabled["structure"] {
		extractors = append(extractors, features.NewStructureExtractor())
	}
	if enabled["graph"] {
		extractors = append(extractors, features.NewGraphExtractor())
	}
	if enabled["clones"] {
		settings := lsh.Settings{
			MinFunctionTokens: cfg.LSH.MinFunctionTokens,
			MinMatchTokens:    cfg.LSH.MinMatchTokens,
			Similarity:        cfg.LSH.Similarity,
			NumHashes:         cfg.LSH.NumHashes,
			Bands:             cfg.LSH.Bands,
			ShingleSize:       cfg.LSH.ShingleSize,
			WeightAST:         cfg.LSH.Weights.AST,
			WeightToken:       cfg.LSH.Weights.PDG,
			WeightSem:         cfg.LSH.Weights.Sem,
			RequireBlocks:     cfg.LSH.RequireBlocks,
			StopMotifDensity:  cfg.LSH.StopMotifDensity,
			AutoCalibrate:     cfg.LSH.AutoCalibrate,
			TargetLower:       cfg.LSH.TargetLower,
			TargetUpper:       cfg.LSH.TargetUpper,
		}
		extractors = append(extractors, features.NewCloneExtractor(settings, totalKLOC(ix)))
	}
	if enabled["coverage"] {
		extractors = append(extractors, features.NewCoverageExtractor(cfg.Analysis.CoveragePath))
	}
	return extractors
}

// totalKLOC sums line counts (newlines plus one per file) across every
// file entity's source in ix,
// the volume denominator the clone engine's auto-calibration band (groups
// per kloc, §4.4) is measured against. File entities don't carry a
// populated Lines range (only leaf entities do), so line count is derived
// directly from the raw content instead.
func totalKLOC(ix *index.Index) float64 {
	lines := 0
	for _, e := range ix.All() {
		if e.Kind != types.KindFile {
			continue
		}
		lines += bytes.Count(e.Source, []byte{'\n'}) + 1
	}
	return float64(lines) / 1000.0
}
