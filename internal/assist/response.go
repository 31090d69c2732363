package assist

import (
	"encoding/json"
	"fmt"
	"strings"
)

type refinementPayload struct {
	Code           string   `json:"code"`
	Confidence     float64  `json:"confidence"`
	RequiresReview bool     `json:"requiresReview"`
	Notes          []string `json:"notes"`
}

// cleanJSONOutput strips the markdown fences models add despite being
// told not to.
func cleanJSONOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// parseRefinement decodes a provider response. An empty code field falls
// back to the deterministic output so a chatty-but-codeless answer still
// degrades gracefully. Confidence at or below 1 is read as a fraction
// and scaled to the 0-100 range; out-of-range values are clamped.
func parseRefinement(raw, fallbackCode string) (*Refinement, error) {
	text := cleanJSONOutput(raw)

	var payload refinementPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse refinement from response: %w", err)
		}
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &payload); err2 != nil {
			return nil, fmt.Errorf("failed to parse refinement from response: %w", err2)
		}
	}

	ref := &Refinement{
		Code:           payload.Code,
		Confidence:     payload.Confidence,
		RequiresReview: payload.RequiresReview,
		Notes:          payload.Notes,
	}
	if strings.TrimSpace(ref.Code) == "" {
		ref.Code = fallbackCode
		ref.Notes = append(ref.Notes, "provider returned no code; kept deterministic output")
		ref.RequiresReview = true
	}
	if ref.Confidence > 0 && ref.Confidence <= 1 {
		ref.Confidence *= 100
	}
	if ref.Confidence < 0 {
		ref.Confidence = 0
	}
	if ref.Confidence > 100 {
		ref.Confidence = 100
	}
	return ref, nil
}
