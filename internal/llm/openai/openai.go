// Package openai implements llm.Provider over the OpenAI chat-completions
// HTTP API. Any OpenAI-compatible endpoint works through BaseURL.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// Name is the registry key for this backend.
const Name = "openai"

// DefaultBaseURL is used when the descriptor leaves BaseURL empty.
const DefaultBaseURL = "https://api.openai.com/v1"

func init() {
	llm.Default().Register(Name, New)
}

// Provider talks to /chat/completions.
type Provider struct {
	model   string
	apiKey  string
	baseURL string
	hc      *http.Client
}

// New builds a Provider from d. It is the registered llm.Builder.
func New(d llm.Descriptor) (llm.Provider, error) {
	if d.Model == "" {
		return nil, llm.ErrMissingModel
	}
	if d.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Provider{model: d.Model, apiKey: d.APIKey, baseURL: base, hc: &http.Client{}}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends msgs as-is; OpenAI shares our role vocabulary.
func (p *Provider) Generate(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	req := chatRequest{Model: p.model, Messages: msgs, MaxTokens: opts.MaxTokens}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	var resp chatResponse
	err := llm.PostJSON(ctx, p.hc, Name, p.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey}, req, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Describe implements llm.Provider.
func (p *Provider) Describe() llm.Info {
	return llm.Info{
		Name:         Name,
		Model:        p.model,
		MaxContext:   maxContext(p.model),
		Capabilities: []string{llm.CapChat, llm.CapSystemRole, llm.CapJSONMode, llm.CapCallOptions},
	}
}

// HealthCheck implements llm.Provider.
func (p *Provider) HealthCheck(ctx context.Context) bool { return llm.Probe(ctx, p) }

func maxContext(model string) int {
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4-turbo"), strings.HasPrefix(model, "gpt-4.1"):
		return 128000
	case strings.HasPrefix(model, "gpt-4"):
		return 8192
	case strings.HasPrefix(model, "gpt-3.5"):
		return 16385
	default:
		return 8192
	}
}
