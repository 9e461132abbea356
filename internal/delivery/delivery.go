// Package delivery posts the rendered response to the configured outbound
// channels: a chat webhook, plain webhook fan-out, and an SNS topic.
package delivery

import (
	"context"
	"errors"
)

var ErrDeliveryFailed = errors.New("DELIVERY_FAILED")

// Message is one outbound post.
type Message struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	ThreadRef string `json:"thread_ref,omitempty"`
}

// Receipt identifies a delivered message.
type Receipt struct {
	Channel    string `json:"channel"`
	MessageRef string `json:"message_ref,omitempty"`
}

// Deliverer is the outbound channel collaborator.
type Deliverer interface {
	PostMessage(ctx context.Context, msg Message) (*Receipt, error)
}
