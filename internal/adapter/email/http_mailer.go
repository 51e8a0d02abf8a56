package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

const retryBaseDelay = 500 * time.Millisecond

// sendRequest is the provider's message envelope.
type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// HTTPMailer implements ports.Mailer against a provider-style JSON API.
//
// Transient failures (network, 429, 5xx) are retried with linear backoff
// up to maxRetries; 4xx responses are permanent and returned immediately.
type HTTPMailer struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	from       string
	maxRetries int
	log        zerolog.Logger
}

// NewHTTPMailer creates a mailer with a bounded per-request timeout.
func NewHTTPMailer(baseURL, apiKey, from string, timeout time.Duration, maxRetries int, log zerolog.Logger) *HTTPMailer {
	return &HTTPMailer{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		maxRetries: maxRetries,
		log:        log,
	}
}

// Send delivers one message, retrying transient provider failures.
func (m *HTTPMailer) Send(ctx context.Context, msg ports.OutboundEmail) error {
	if msg.To == "" {
		return fmt.Errorf("empty recipient")
	}

	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshaling email payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			}
		}

		retryable, err := m.attempt(ctx, body)
		if err == nil {
			if attempt > 0 {
				m.log.Info().Str("to", msg.To).Int("attempt", attempt+1).Msg("email delivered after retry")
			}
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		m.log.Warn().Err(err).Str("to", msg.To).Int("attempt", attempt+1).Msg("email delivery failed, will retry")
	}

	return fmt.Errorf("email delivery exhausted %d attempts: %w", m.maxRetries+1, lastErr)
}

// attempt performs one provider call. The bool reports retryability.
func (m *HTTPMailer) attempt(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/send", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("calling email provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("email provider returned %d", resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("email provider rejected message: %d %s", resp.StatusCode, string(detail))
	}
}
