// Package llm abstracts the LLM backends used for distillation and carries
// the prompt builders and response parsing shared by all generation paths.
package llm

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Request holds parameters for a completion call.
type Request struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response holds the result of a completion call.
type Response struct {
	Content      string  `json:"content"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
	StopReason   string  `json:"stop_reason"`
}

// Provider is the abstract interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
	Models() []string
}
