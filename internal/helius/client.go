package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

// Client edits the provider-side webhook so its account allowlist mirrors the
// wallets users follow. The provider's edit call replaces the whole webhook
// definition, so every push carries the full configuration.
type Client struct {
	baseURL    string
	apiKey     string
	webhookID  string
	webhookURL string
	httpClient *http.Client
	log        logger.Logger
}

type editWebhookRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
}

func NewClient(cfg config.HeliusConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.Global()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		webhookID:  cfg.WebhookID,
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With(logger.F("component", "helius")),
	}
}

// SyncAllowlist replaces the webhook's tracked addresses with the given set.
// An empty set is pushed as-is; the provider accepts an empty allowlist.
func (c *Client) SyncAllowlist(ctx context.Context, wallets []string) error {
	if wallets == nil {
		wallets = []string{}
	}

	body, err := json.Marshal(editWebhookRequest{
		WebhookURL:       c.webhookURL,
		TransactionTypes: []string{"SWAP"},
		AccountAddresses: wallets,
		WebhookType:      "enhanced",
	})
	if err != nil {
		return fmt.Errorf("marshal webhook edit: %w", err)
	}

	url := fmt.Sprintf("%s/v0/webhooks/%s?api-key=%s", c.baseURL, c.webhookID, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook edit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("edit webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("edit webhook: provider returned %d: %s", resp.StatusCode, detail)
	}

	c.log.Debug("webhook allowlist updated", logger.F("addresses", len(wallets)))
	return nil
}
