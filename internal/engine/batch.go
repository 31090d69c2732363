package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"stackshift/internal/backup"
	"stackshift/internal/migration"
)

// TransformBatch migrates a set of files under one job: it loads the
// rule set, snapshots the originals in a backup transaction, plans the
// target file structure once, transforms files in fixed-size concurrent
// groups, and runs post-processors. Per-file failures become results;
// only configuration errors and cancellation abort the batch, and those
// roll the snapshot back.
func (e *Engine) TransformBatch(ctx context.Context, spec *migration.Specification, files []migration.FileRecord, onProgress ProgressFunc) (*BatchResult, error) {
	jobID := uuid.NewString()

	if err := e.rules.LoadRules(spec); err != nil {
		return nil, err
	}

	snapshot := make(map[string]string, len(files))
	for _, f := range files {
		snapshot[f.Path] = f.Content
	}
	tx, err := e.backups.Begin(jobID, snapshot, backup.Meta{
		SourceFramework: spec.Source.Framework,
		TargetFramework: spec.Target.Framework,
	})
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		JobID:   jobID,
		Results: make(map[string]*TransformResult, len(files)),
	}

	if e.planner != nil {
		actions, perr := e.planner.Plan(ctx, spec, files)
		if perr != nil {
			_, _ = tx.Rollback()
			e.event(jobID, "error", map[string]any{"error": perr.Error()})
			return nil, fmt.Errorf("structure planning: %w", perr)
		}
		batch.PlanActions = actions
	}
	moves := plannedMoves(batch.PlanActions)

	total := len(files)
	e.event(jobID, "progress", map[string]any{"stage": "transform", "total": total})

	results := make([]*TransformResult, total)
	done := 0
	for start := 0; start < total; start += e.opts.Concurrency {
		if cerr := ctx.Err(); cerr != nil {
			_, _ = tx.Rollback()
			e.event(jobID, "error", map[string]any{"error": cerr.Error()})
			return nil, cerr
		}

		end := start + e.opts.Concurrency
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = e.TransformFile(ctx, spec, files[i])
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			res := results[i]
			if newPath, moved := moves[res.OriginalPath]; moved {
				res.NewPath = newPath
			}
			batch.Results[res.NewPath] = res

			done++
			if onProgress != nil {
				onProgress("transform", done, total, res.OriginalPath)
			}
			e.event(jobID, "progress", map[string]any{
				"file":       res.OriginalPath,
				"confidence": res.Metadata.Confidence,
				"current":    done,
				"total":      total,
			})
		}
	}

	for _, pp := range e.post {
		if perr := pp.Process(ctx, spec, batch); perr != nil {
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("post-process %s: %v", pp.Name(), perr))
			e.event(jobID, "error", map[string]any{"postProcessor": pp.Name(), "error": perr.Error()})
		}
	}

	batch.Stats = statsOf(batch.Results)

	if cerr := tx.Commit(); cerr != nil {
		return batch, cerr
	}
	e.event(jobID, "complete", map[string]any{
		"totalFiles":        batch.Stats.TotalFiles,
		"successful":        batch.Stats.Successful,
		"requiresReview":    batch.Stats.RequiresReview,
		"averageConfidence": batch.Stats.AverageConfidence,
	})
	return batch, nil
}

// plannedMoves indexes move actions by original path. Creates and
// deletes stay on the plan for the writer to apply; they do not retarget
// per-file results.
func plannedMoves(actions []migration.PlanAction) map[string]string {
	moves := make(map[string]string)
	for _, a := range actions {
		if a.Action == migration.PlanMove && a.OriginalPath != "" && a.NewPath != "" {
			moves[a.OriginalPath] = a.NewPath
		}
	}
	return moves
}
