package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Network configures one explorer endpoint and its finality depth.
type Network struct {
	BaseURL       string
	Confirmations int64
}

// txResponse is the explorer's transaction document.
type txResponse struct {
	Hash          string          `json:"hash"`
	To            string          `json:"to"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	Status        string          `json:"status"` // "success" or "failed"
}

// ExplorerVerifier implements ports.ChainVerifier against HTTP block
// explorers, one per network.
//
// Explorer unreachability is a verdict (UNAVAILABLE), never an error and
// never a MISMATCH: a flaky explorer must not make a legitimate payment
// look fraudulent. The returned error is reserved for queries this process
// could never serve, like an unconfigured network.
type ExplorerVerifier struct {
	client   *http.Client
	networks map[string]Network
	log      zerolog.Logger
}

// NewExplorerVerifier creates a verifier with a bounded request timeout.
func NewExplorerVerifier(networks map[string]Network, timeout time.Duration, log zerolog.Logger) *ExplorerVerifier {
	return &ExplorerVerifier{
		client:   &http.Client{Timeout: timeout},
		networks: networks,
		log:      log,
	}
}

// Verify looks up the transaction and compares it against the query.
func (v *ExplorerVerifier) Verify(ctx context.Context, q ports.VerificationQuery) (*domain.VerificationResult, error) {
	network, ok := v.networks[q.Network]
	if !ok {
		return nil, fmt.Errorf("network %q has no explorer configured", q.Network)
	}
	if q.TxHash == "" {
		return nil, fmt.Errorf("empty transaction hash")
	}

	url := fmt.Sprintf("%s/api/v1/tx/%s", strings.TrimSuffix(network.BaseURL, "/"), q.TxHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building explorer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn().Err(err).Str("network", q.Network).Msg("explorer unreachable")
		return &domain.VerificationResult{Status: domain.VerificationUnavailable}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &domain.VerificationResult{Status: domain.VerificationNotFound}, nil
	case resp.StatusCode != http.StatusOK:
		v.log.Warn().Int("status", resp.StatusCode).Str("network", q.Network).Msg("explorer returned non-OK status")
		return &domain.VerificationResult{Status: domain.VerificationUnavailable}, nil
	}

	var tx txResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		v.log.Warn().Err(err).Str("network", q.Network).Msg("explorer returned malformed body")
		return &domain.VerificationResult{Status: domain.VerificationUnavailable}, nil
	}

	result := &domain.VerificationResult{
		ObservedAmount: tx.Amount,
		Confirmations:  tx.Confirmations,
	}

	switch {
	case tx.Status == "failed":
		result.Status = domain.VerificationReverted
	case !strings.EqualFold(tx.To, q.Address):
		result.Status = domain.VerificationMismatch
	case tx.Amount.LessThan(q.MinAmount):
		result.Status = domain.VerificationMismatch
	case tx.Confirmations < network.Confirmations:
		result.Status = domain.VerificationPending
	default:
		result.Status = domain.VerificationConfirmed
	}

	return result, nil
}
