// Package ollama implements llm.Provider over a local Ollama server's
// /api/chat endpoint. No credential is needed.
package ollama

import (
	"context"
	"net/http"
	"strings"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

const (
	// Name is the registry key for this backend.
	Name = "ollama"
	// DefaultBaseURL is the stock local endpoint.
	DefaultBaseURL = "http://localhost:11434"
)

func init() {
	llm.Default().Register(Name, New)
}

// Provider talks to /api/chat with streaming disabled.
type Provider struct {
	model   string
	baseURL string
	hc      *http.Client
}

// New builds a Provider from d.
func New(d llm.Descriptor) (llm.Provider, error) {
	if d.Model == "" {
		return nil, llm.ErrMissingModel
	}
	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Provider{model: d.Model, baseURL: base, hc: &http.Client{}}, nil
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	req := chatRequest{
		Model:    p.model,
		Messages: msgs,
		Options:  chatOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	}
	var resp chatResponse
	if err := llm.PostJSON(ctx, p.hc, Name, p.baseURL+"/api/chat", nil, req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// Describe implements llm.Provider.
func (p *Provider) Describe() llm.Info {
	return llm.Info{
		Name:         Name,
		Model:        p.model,
		MaxContext:   8192,
		Capabilities: []string{llm.CapChat, llm.CapSystemRole, llm.CapLocal, llm.CapCallOptions},
	}
}

// HealthCheck implements llm.Provider.
func (p *Provider) HealthCheck(ctx context.Context) bool { return llm.Probe(ctx, p) }
