package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPAudienceResolver implements ports.RecipientResolver against the email
// provider's audience API. A filter is a provider-side saved segment name.
type HTTPAudienceResolver struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewHTTPAudienceResolver creates a resolver with a bounded timeout.
func NewHTTPAudienceResolver(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *HTTPAudienceResolver {
	return &HTTPAudienceResolver{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// Resolve fetches the concrete members of a saved segment.
func (r *HTTPAudienceResolver) Resolve(ctx context.Context, filter string) ([]ports.Recipient, error) {
	if filter == "" {
		return nil, fmt.Errorf("empty audience filter")
	}

	endpoint := fmt.Sprintf("%s/v1/audiences/%s", r.baseURL, url.PathEscape(filter))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building audience request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching audience %q: %w", filter, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audience API returned %d for %q", resp.StatusCode, filter)
	}

	var payload struct {
		Members []ports.Recipient `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding audience response: %w", err)
	}
	return payload.Members, nil
}

// HTTPTemplateRenderer implements ports.TemplateRenderer against the
// provider's stored-template render endpoint. Campaigns carry template ids,
// never markup, so content edits need no deploy.
type HTTPTemplateRenderer struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPTemplateRenderer creates a renderer with a bounded timeout.
func NewHTTPTemplateRenderer(baseURL, apiKey string, timeout time.Duration) *HTTPTemplateRenderer {
	return &HTTPTemplateRenderer{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Render materializes a stored template with per-recipient data.
func (r *HTTPTemplateRenderer) Render(templateID string, data map[string]any) (string, error) {
	body, err := json.Marshal(map[string]any{
		"template_id": templateID,
		"data":        data,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling render request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/v1/templates/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rendering template %q: %w", templateID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template render API returned %d for %q", resp.StatusCode, templateID)
	}

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding render response: %w", err)
	}
	return payload.HTML, nil
}
