// Package notify delivers best-effort operational alerts to an external
// webhook. Delivery is fire-and-forget: failures are logged and swallowed,
// duplicates are tolerated, and nothing here may block a settlement.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sink is the provider-agnostic interface for outbound alerts.
type Sink interface {
	// LowStock announces that a product's purchasable stock fell to or below
	// the restock threshold.
	LowStock(ctx context.Context, productName string, remaining int)
	// Charge announces an admin balance charge and the resulting cash box
	// balance.
	Charge(ctx context.Context, memberName string, amount, newCashBoxBalance int64)
}

// ── Webhook sink ──────────────────────────────────────────────────────────────

type webhookSink struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewWebhookSink posts Slack-style text payloads to url. When url is empty a
// no-op sink is returned.
func NewWebhookSink(url string, log *zap.Logger) Sink {
	if url == "" {
		return NewNoopSink()
	}
	return &webhookSink{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

func (s *webhookSink) LowStock(ctx context.Context, productName string, remaining int) {
	s.post(ctx, fmt.Sprintf(
		"⚠️ 在庫切れ注意報 ⚠️\n商品名: %s\n現在の在庫: %d個\nそろそろ買い出しの時期かもしれません",
		productName, remaining))
}

func (s *webhookSink) Charge(ctx context.Context, memberName string, amount, newCashBoxBalance int64) {
	s.post(ctx, fmt.Sprintf(
		"💰 チャージ報告 💰\n%s さんに %d円 チャージしました。\n現在の金庫残高: %d円",
		memberName, amount, newCashBoxBalance))
}

func (s *webhookSink) post(ctx context.Context, text string) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		s.log.Debug("notify: encode payload failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.log.Debug("notify: build request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("notify: webhook unreachable", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.log.Debug("notify: webhook rejected payload", zap.Int("status", resp.StatusCode))
	}
}

// ── Noop sink ─────────────────────────────────────────────────────────────────

type noopSink struct{}

// NewNoopSink returns a Sink that discards everything.
func NewNoopSink() Sink { return noopSink{} }

func (noopSink) LowStock(context.Context, string, int)        {}
func (noopSink) Charge(context.Context, string, int64, int64) {}
