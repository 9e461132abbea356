package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"catalog-agent/internal/common/logger"
)

// Envelope is the fixed JSON body posted to every fan-out URL.
type Envelope struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
	Intent    string `json:"intent"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user,omitempty"`
	Channel   string `json:"channel,omitempty"`
	AgentName string `json:"agent_name"`
}

// Fanout posts one envelope to each configured URL independently. The fan-out
// as a whole succeeds when at least one URL accepts it.
type Fanout struct {
	urls   []string
	client *http.Client
	logger logger.Logger
}

func NewFanout(urls []string, timeout time.Duration, log logger.Logger) *Fanout {
	return &Fanout{
		urls:   urls,
		client: &http.Client{Timeout: timeout},
		logger: log.WithFields(map[string]interface{}{"component": "webhook_fanout"}),
	}
}

// Send posts env to every URL. It returns the number of successful posts and
// an error only when every post failed.
func (f *Fanout) Send(ctx context.Context, env Envelope) (int, error) {
	if len(f.urls) == 0 {
		return 0, nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("%w: encode envelope: %v", ErrDeliveryFailed, err)
	}

	succeeded := 0
	for _, url := range f.urls {
		if err := f.post(ctx, url, body); err != nil {
			f.logger.Warn("webhook post failed", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return 0, fmt.Errorf("%w: all %d webhook posts failed", ErrDeliveryFailed, len(f.urls))
	}
	return succeeded, nil
}

func (f *Fanout) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
