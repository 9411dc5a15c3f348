// Package llm defines the provider-agnostic contract every large-language-model
// backend satisfies, the registry that turns a configured name into a ready
// Provider, and the shared helpers callers use to read structured output out
// of free-text completions.
//
// Backends live in sub-packages (openai, anthropic, ollama, gollm) and
// register themselves from init(); callers only ever see Provider.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Role is the speaker of one message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the ordered conversation sent to a backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System, User and Assistant are shorthands for building message lists.
func System(s string) Message    { return Message{Role: RoleSystem, Content: s} }
func User(s string) Message      { return Message{Role: RoleUser, Content: s} }
func Assistant(s string) Message { return Message{Role: RoleAssistant, Content: s} }

// Options are the generation knobs forwarded to a backend. Zero values mean
// "use the provider default".
type Options struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	// Timeout bounds one attempt; it is not part of the request identity.
	Timeout time.Duration `json:"-"`
}

// Merge returns o with zero fields filled from def.
func (o Options) Merge(def Options) Options {
	if o.Temperature == 0 {
		o.Temperature = def.Temperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = def.MaxTokens
	}
	if o.Timeout == 0 {
		o.Timeout = def.Timeout
	}
	return o
}

// Capability flags advertised by Describe.
const (
	CapChat       = "chat"
	CapSystemRole = "system_role"
	CapJSONMode   = "json_mode"
	CapLocal      = "local"

	// CapCallOptions means Generate honors per-call Options. Without it
	// only the Descriptor's construction-time options apply.
	CapCallOptions = "call_options"
)

// Info is the static self-description of a provider.
type Info struct {
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	MaxContext   int      `json:"max_context"`
	Capabilities []string `json:"capabilities"`
}

// Provider is the contract implemented once per backend.
type Provider interface {
	// Generate returns the completion for msgs. An empty string with a nil
	// error is a legitimate empty completion.
	Generate(ctx context.Context, msgs []Message, opts Options) (string, error)

	// Describe reports static metadata and never touches the network.
	Describe() Info

	// HealthCheck issues one minimal Generate and reports reachability.
	// Failures, including panics, turn into false.
	HealthCheck(ctx context.Context) bool
}

// Descriptor is the immutable configuration a Provider is built from.
type Descriptor struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
	Options Options
}

// String renders d without its credential.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s:%s", d.Name, d.Model)
}

// healthPrompt is the minimal request used to probe a backend.
var healthPrompt = []Message{User("ping")}

// Probe is the shared HealthCheck body: one tiny Generate bounded by a short
// deadline, with errors and panics folded into false.
func Probe(ctx context.Context, p Provider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.Generate(ctx, healthPrompt, Options{MaxTokens: 1})
	return err == nil
}
