// Package engine is the transformation orchestrator. It sequences the
// deterministic AST pass, the optional AI-assisted semantic pass, rule
// validation, equivalence checking, and confidence scoring for a single
// file, and wraps batches in backup transactions with bounded
// concurrency. Failures surface as low-confidence results, never as
// panics or aborted batches.
package engine

import (
	"context"

	"stackshift/internal/assist"
	"stackshift/internal/backup"
	"stackshift/internal/equiv"
	"stackshift/internal/migration"
	"stackshift/internal/recovery"
	"stackshift/internal/rules"
	"stackshift/internal/transform"
)

// Default tuning. Concurrency bounds the fan-out group size; the
// fallback confidence is the contractual score for files whose semantic
// pass failed past recovery.
const (
	DefaultConcurrency        = 5
	DefaultFallbackConfidence = 40
)

// Planner decides file-structure changes for a batch before any content
// is rewritten.
type Planner interface {
	Plan(ctx context.Context, spec *migration.Specification, files []migration.FileRecord) ([]migration.PlanAction, error)
}

// Fetcher resolves raw file text by path, used to pull related content
// (like the project manifest) into a configuration file's semantic pass.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// ProgressSink receives job events: progress, complete, error.
type ProgressSink interface {
	Event(jobID, message string, data map[string]any)
}

// PostProcessor runs once after a batch's per-file pass. Failures are
// recorded as batch warnings and never abort the batch.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, spec *migration.Specification, batch *BatchResult) error
}

// ProgressFunc is the optional per-batch callback reporting stage
// advancement.
type ProgressFunc func(stage string, current, total int, message string)

// Options tunes the engine.
type Options struct {
	Concurrency        int
	FallbackConfidence float64
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.FallbackConfidence <= 0 {
		o.FallbackConfidence = DefaultFallbackConfidence
	}
	return o
}

// Deps are the engine's collaborators. Nil core stages select defaults;
// a nil Assist disables the semantic pass, and nil Planner, Fetcher,
// Sink, and PostProcessors are simply not consulted.
type Deps struct {
	Rewriter       *transform.Rewriter
	Rules          *rules.Engine
	Checker        *equiv.Checker
	Assist         assist.Provider
	Recovery       *recovery.Manager
	Backups        *backup.Manager
	Planner        Planner
	Fetcher        Fetcher
	Sink           ProgressSink
	PostProcessors []PostProcessor
}

// Engine orchestrates the migration pipeline.
type Engine struct {
	rewriter *transform.Rewriter
	rules    *rules.Engine
	checker  *equiv.Checker
	assist   assist.Provider
	recovery *recovery.Manager
	backups  *backup.Manager
	planner  Planner
	fetcher  Fetcher
	sink     ProgressSink
	post     []PostProcessor
	opts     Options
}

// New builds an engine from its collaborators.
func New(deps Deps, opts Options) *Engine {
	if deps.Rewriter == nil {
		deps.Rewriter = transform.NewRewriter(nil, nil)
	}
	if deps.Rules == nil {
		deps.Rules = rules.NewEngine(nil, nil)
	}
	if deps.Checker == nil {
		deps.Checker = equiv.NewChecker(nil)
	}
	if deps.Recovery == nil {
		deps.Recovery = recovery.NewManager()
	}
	if deps.Backups == nil {
		deps.Backups = backup.NewManager(0)
	}
	return &Engine{
		rewriter: deps.Rewriter,
		rules:    deps.Rules,
		checker:  deps.Checker,
		assist:   deps.Assist,
		recovery: deps.Recovery,
		backups:  deps.Backups,
		planner:  deps.Planner,
		fetcher:  deps.Fetcher,
		sink:     deps.Sink,
		post:     deps.PostProcessors,
		opts:     opts.withDefaults(),
	}
}

// Backups exposes the snapshot store, the job-level rollback surface.
func (e *Engine) Backups() *backup.Manager {
	return e.backups
}

// Rules exposes the rule engine for standalone validation runs.
func (e *Engine) Rules() *rules.Engine {
	return e.rules
}

func (e *Engine) event(jobID, message string, data map[string]any) {
	if e.sink != nil {
		e.sink.Event(jobID, message, data)
	}
}
