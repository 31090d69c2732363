package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stackshift/internal/recovery"
)

// OpenAIProvider refines files through any OpenAI-compatible chat
// completions endpoint.
type OpenAIProvider struct {
	client        *http.Client
	apiKey        string
	model         string
	endpoint      string
	promptBuilder *PromptBuilder
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	return &OpenAIProvider{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		apiKey:        apiKey,
		model:         model,
		endpoint:      endpoint,
		promptBuilder: &PromptBuilder{},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Refine(ctx context.Context, req Request) (*Refinement, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, recovery.NewFault(recovery.KindConfig, "openai refine", false,
			errors.New("openai api key is required"))
	}
	if strings.TrimSpace(p.model) == "" {
		return nil, recovery.NewFault(recovery.KindConfig, "openai refine", false,
			errors.New("openai model is required"))
	}

	prompt := p.promptBuilder.BuildRefinePrompt(req)
	reqBody := openAIChatRequest{
		Model: p.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, recovery.NewFault(recovery.KindInfra, "openai refine", true, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, recovery.NewFault(recovery.KindInfra, "openai refine", true, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, recovery.NewFault(recovery.KindRateLimit, "openai refine", true,
			fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false,
			fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false,
			errors.New("empty response"))
	}
	ref, err := parseRefinement(parsed.Choices[0].Message.Content, req.DeterministicCode)
	if err != nil {
		return nil, recovery.NewFault(recovery.KindAssist, "openai refine", false, err)
	}
	return ref, nil
}
