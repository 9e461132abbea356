package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/common/logger"
)

// ChatDeliverer posts the response to a chat platform's incoming webhook. It
// supports an optional mention prefix and thread continuation.
type ChatDeliverer struct {
	cfg    config.DeliveryConfig
	token  string
	client *http.Client
	logger logger.Logger
}

func NewChat(cfg config.DeliveryConfig, botToken string, log logger.Logger) *ChatDeliverer {
	return &ChatDeliverer{
		cfg:   cfg,
		token: botToken,
		client: &http.Client{
			Timeout: config.GetDuration(cfg.TimeoutMillis),
		},
		logger: log.WithFields(map[string]interface{}{"component": "chat_delivery"}),
	}
}

func (d *ChatDeliverer) PostMessage(ctx context.Context, msg Message) (*Receipt, error) {
	text := msg.Text
	if d.cfg.MentionPrefix != "" {
		text = d.cfg.MentionPrefix + " " + text
	}

	payload := map[string]interface{}{
		"channel": msg.Channel,
		"text":    text,
	}
	if d.cfg.ThreadReplies && msg.ThreadRef != "" {
		payload["thread_ts"] = msg.ThreadRef
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: post message: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	var reply struct {
		TS string `json:"ts"`
	}
	// Webhook endpoints may reply with a bare "ok" body.
	_ = json.NewDecoder(resp.Body).Decode(&reply)

	d.logger.Info("message delivered", map[string]interface{}{
		"channel": msg.Channel,
		"ref":     reply.TS,
	})
	return &Receipt{Channel: msg.Channel, MessageRef: reply.TS}, nil
}
