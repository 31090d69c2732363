package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"stackshift/internal/recovery"
)

// GeminiProvider refines files using Gemini text generation.
type GeminiProvider struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiProvider(ctx context.Context, apiKey string, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiProvider{
		client:        client,
		model:         modelName,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Refine(ctx context.Context, req Request) (*Refinement, error) {
	prompt := p.promptBuilder.BuildRefinePrompt(req)
	contents := genai.Text(prompt)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		if isRateLimitError(err) {
			return nil, recovery.NewFault(recovery.KindRateLimit, "gemini refine", true, err)
		}
		return nil, recovery.NewFault(recovery.KindAssist, "gemini refine", false, err)
	}
	text := resp.Text()
	if text == "" {
		return nil, recovery.NewFault(recovery.KindAssist, "gemini refine", false,
			errors.New("empty response"))
	}
	ref, err := parseRefinement(text, req.DeterministicCode)
	if err != nil {
		return nil, recovery.NewFault(recovery.KindAssist, "gemini refine", false, err)
	}
	return ref, nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED") || strings.Contains(s, "quota")
}
