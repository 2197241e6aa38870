package helius

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
)

func TestSyncAllowlist(t *testing.T) {
	var captured editWebhookRequest
	var method, path, apiKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		apiKey = r.URL.Query().Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.HeliusConfig{
		BaseURL:    srv.URL,
		APIKey:     "key123",
		WebhookID:  "wh-42",
		WebhookURL: "https://tracker.example.com/webhook",
	}, nil)

	wallets := []string{"walletA", "walletB"}
	if err := client.SyncAllowlist(context.Background(), wallets); err != nil {
		t.Fatalf("SyncAllowlist: %v", err)
	}

	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	if path != "/v0/webhooks/wh-42" {
		t.Errorf("path = %s", path)
	}
	if apiKey != "key123" {
		t.Errorf("api-key = %s", apiKey)
	}
	if len(captured.AccountAddresses) != 2 {
		t.Errorf("accountAddresses = %v", captured.AccountAddresses)
	}
	if captured.WebhookType != "enhanced" {
		t.Errorf("webhookType = %s", captured.WebhookType)
	}
	if len(captured.TransactionTypes) != 1 || captured.TransactionTypes[0] != "SWAP" {
		t.Errorf("transactionTypes = %v", captured.TransactionTypes)
	}
}

func TestSyncAllowlistEmptySet(t *testing.T) {
	var captured editWebhookRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.HeliusConfig{
		BaseURL:   srv.URL,
		APIKey:    "k",
		WebhookID: "w",
	}, nil)

	if err := client.SyncAllowlist(context.Background(), nil); err != nil {
		t.Fatalf("SyncAllowlist(nil): %v", err)
	}
	if captured.AccountAddresses == nil {
		t.Error("accountAddresses should be an empty array, not null")
	}
}

func TestSyncAllowlistProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid webhook id", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(config.HeliusConfig{
		BaseURL:   srv.URL,
		APIKey:    "k",
		WebhookID: "bad",
	}, nil)

	if err := client.SyncAllowlist(context.Background(), []string{"w"}); err == nil {
		t.Fatal("expected error on provider 400")
	}
}
