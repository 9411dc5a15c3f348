// Package anthropic implements llm.Provider over the Anthropic Messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

const (
	// Name is the registry key for this backend.
	Name = "anthropic"
	// DefaultBaseURL is used when the descriptor leaves BaseURL empty.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

func init() {
	llm.Default().Register(Name, New)
}

// Provider talks to /messages.
type Provider struct {
	model   string
	apiKey  string
	baseURL string
	hc      *http.Client
}

// New builds a Provider from d.
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

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// translate maps our role list onto the Messages API: system turns are
// hoisted into the top-level system field, consecutive same-role turns are
// merged, and the conversation must open with a user turn.
func translate(msgs []llm.Message) (string, []wireMessage) {
	var system []string
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		role := string(llm.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = string(llm.RoleAssistant)
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, wireMessage{Role: role, Content: m.Content})
	}
	if len(out) == 0 || out[0].Role != string(llm.RoleUser) {
		out = append([]wireMessage{{Role: string(llm.RoleUser), Content: "(continue)"}}, out...)
	}
	return strings.Join(system, "\n\n"), out
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	system, wire := translate(msgs)
	req := messagesRequest{Model: p.model, System: system, Messages: wire, MaxTokens: opts.MaxTokens}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	var resp messagesResponse
	err := llm.PostJSON(ctx, p.hc, Name, p.baseURL+"/messages", map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": apiVersion,
	}, req, &resp)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Describe implements llm.Provider.
func (p *Provider) Describe() llm.Info {
	return llm.Info{
		Name:         Name,
		Model:        p.model,
		MaxContext:   200000,
		Capabilities: []string{llm.CapChat, llm.CapSystemRole, llm.CapCallOptions},
	}
}

// HealthCheck implements llm.Provider.
func (p *Provider) HealthCheck(ctx context.Context) bool { return llm.Probe(ctx, p) }
