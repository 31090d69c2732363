package engine

import (
	"stackshift/internal/migration"
	"stackshift/internal/rules"
)

// Metadata is the numeric and audit summary attached to one result.
type Metadata struct {
	FilesModified  []string `json:"filesModified,omitempty"`
	LinesAdded     int      `json:"linesAdded"`
	LinesRemoved   int      `json:"linesRemoved"`
	Confidence     float64  `json:"confidence"`
	RiskScore      float64  `json:"riskScore"`
	RequiresReview bool     `json:"requiresReview"`
	Applied        []string `json:"appliedTransformations,omitempty"`
	Notes          []string `json:"notes,omitempty"`
}

// TransformResult is the per-file output of the pipeline, immutable once
// returned. A failed transformation still yields a result whose Code is
// the untouched original.
type TransformResult struct {
	OriginalPath string            `json:"originalPath"`
	NewPath      string            `json:"newPath"`
	Code         string            `json:"code"`
	OriginalCode string            `json:"originalCode"`
	Diff         string            `json:"diff,omitempty"`
	Metadata     Metadata          `json:"metadata"`
	Violations   []rules.Violation `json:"violations,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	Success      bool              `json:"success"`
}

// BatchStats aggregates one batch. Successful counts files above the
// manual-review threshold; FilesWithErrors counts files below the
// low-confidence floor.
type BatchStats struct {
	TotalFiles        int     `json:"totalFiles"`
	Successful        int     `json:"successfulTransformations"`
	RequiresReview    int     `json:"requiresReview"`
	AverageConfidence float64 `json:"averageConfidence"`
	TotalWarnings     int     `json:"totalWarnings"`
	FilesWithErrors   int     `json:"filesWithErrors"`
}

// BatchResult is everything one batch produced: per-file results keyed
// by final path, the structure plan, and aggregate statistics.
type BatchResult struct {
	JobID       string                      `json:"jobId"`
	Results     map[string]*TransformResult `json:"results"`
	PlanActions []migration.PlanAction      `json:"planActions,omitempty"`
	Stats       BatchStats                  `json:"stats"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

func statsOf(results map[string]*TransformResult) BatchStats {
	stats := BatchStats{TotalFiles: len(results)}
	if len(results) == 0 {
		return stats
	}
	var sum float64
	for _, r := range results {
		conf := r.Metadata.Confidence
		sum += conf
		if conf > 70 {
			stats.Successful++
		}
		if conf < 50 {
			stats.FilesWithErrors++
		}
		if r.Metadata.RequiresReview {
			stats.RequiresReview++
		}
		stats.TotalWarnings += len(r.Warnings)
	}
	stats.AverageConfidence = sum / float64(len(results))
	return stats
}
