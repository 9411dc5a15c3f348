// Package gollm adapts the teilomillet/gollm client to llm.Provider. It is
// registered under "gollm" and reads the underlying engine from the model
// prefix (see engineFor).
package gollm

import (
	"context"
	"fmt"
	"strings"

	gollm "github.com/teilomillet/gollm"
	gllm "github.com/teilomillet/gollm/llm"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// Name is the registry key for this backend.
const Name = "gollm"

// defaultTemperature applies when the Descriptor leaves temperature unset.
const defaultTemperature = 0.2

func init() {
	llm.Default().Register(Name, New)
}

// llmNew is wrapped so unit tests can avoid real client construction.
var llmNew = gollm.NewLLM

// generator is the part of gollm we actually need.
type generator interface {
	Generate(ctx context.Context, p *gollm.Prompt, opts ...gllm.GenerateOption) (string, error)
}

type provider struct {
	llm    generator
	engine string
	model  string
}

// engineFor splits "engine/model" (e.g. "openai/gpt-4o-mini",
// "ollama/llama3") into its parts; a bare model defaults to openai.
func engineFor(model string) (string, string) {
	if i := strings.IndexByte(model, '/'); i > 0 {
		return strings.ToLower(model[:i]), model[i+1:]
	}
	return "openai", model
}

// New builds a gollm-backed provider. Descriptor.Model is "engine/model";
// BaseURL is forwarded as the Ollama endpoint. gollm fixes temperature and
// max tokens per client, so the Descriptor's options are applied here and
// per-call Options are not honored (Describe omits CapCallOptions).
func New(d llm.Descriptor) (llm.Provider, error) {
	engine, model := engineFor(d.Model)
	if model == "" {
		return nil, llm.ErrMissingModel
	}
	if engine != "ollama" && d.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	maxTokens := d.Options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 768
	}
	temperature := d.Options.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	client, err := llmNew(
		gollm.SetProvider(engine),
		gollm.SetModel(model),
		gollm.SetAPIKey(d.APIKey),
		gollm.SetMaxTokens(maxTokens),
		gollm.SetTemperature(temperature),
		gollm.SetOllamaEndpoint(d.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("%s init: %w", engine, err)
	}
	return &provider{llm: client, engine: engine, model: model}, nil
}

// flatten renders the role-tagged history as one prompt, since gollm takes
// a single prompt text. Role labels keep the turns distinguishable.
func flatten(msgs []llm.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			sb.WriteString("System: ")
		case llm.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("Assistant:")
	return sb.String()
}

// Generate implements llm.Provider. opts are ignored: the client was built
// with the Descriptor's options.
func (p *provider) Generate(ctx context.Context, msgs []llm.Message, _ llm.Options) (string, error) {
	resp, err := p.llm.Generate(ctx, gollm.NewPrompt(flatten(msgs)))
	if err != nil {
		return "", fmt.Errorf("%s:%s: %w", p.engine, p.model, err)
	}
	return strings.TrimSpace(resp), nil
}

// Describe implements llm.Provider.
func (p *provider) Describe() llm.Info {
	caps := []string{llm.CapChat}
	if p.engine == "ollama" {
		caps = append(caps, llm.CapLocal)
	}
	return llm.Info{
		Name:         fmt.Sprintf("%s:%s", Name, p.engine),
		Model:        p.model,
		MaxContext:   8192,
		Capabilities: caps,
	}
}

// HealthCheck implements llm.Provider.
func (p *provider) HealthCheck(ctx context.Context) bool { return llm.Probe(ctx, p) }
