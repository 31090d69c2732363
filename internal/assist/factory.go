package assist

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewProvider builds the provider named in opts. An empty name, "none"
// and "offline" all select the OfflineProvider so the pipeline runs
// without an API key.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))

	switch provider {
	case "", "none", "offline":
		return OfflineProvider{}, nil
	case "gemini":
		return NewGeminiProvider(ctx, opts.APIKey, opts.Model)
	case "openai":
		return NewOpenAIProvider(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported assist provider: %s", opts.Provider)
	}
}
