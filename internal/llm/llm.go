// Package llm abstracts the chat-completion backends used for intent
// classification and generative response composition. Both share a single
// transport shape: an instruction, the raw user text, and sampling settings.
package llm

import "context"

// Request is one completion call.
type Request struct {
	Model       string
	Instruction string
	UserText    string
	MaxTokens   int
	Temperature float64
}

// Client is the completion backend collaborator. Implementations block until
// the backend replies or the context is done.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
