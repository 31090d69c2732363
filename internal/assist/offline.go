package assist

import "context"

// OfflineProvider is the no-network provider used when no AI backend is
// configured. It echoes the deterministic output with zero confidence,
// which scoring reads as "no semantic opinion", so results match a run
// with the pass disabled.
type OfflineProvider struct{}

func (OfflineProvider) Name() string { return "offline" }

func (OfflineProvider) Refine(_ context.Context, req Request) (*Refinement, error) {
	return &Refinement{
		Code:       req.DeterministicCode,
		Confidence: 0,
		Notes:      []string{"semantic pass skipped: no AI provider configured"},
	}, nil
}
