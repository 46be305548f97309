package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BridgePoller polls the card reader bridge for the most recently scanned
// card and mirrors it into the session-state row. The bridge is treated as
// unreliable: when it is absent or unreachable the kiosk degrades silently
// to "no card present".
type BridgePoller struct {
	kioskID  string
	url      string
	interval time.Duration
	repo     Repository
	client   *http.Client
	log      *zap.Logger

	lastUID *string
	primed  bool
}

func NewBridgePoller(kioskID, url string, interval time.Duration, repo Repository, log *zap.Logger) *BridgePoller {
	return &BridgePoller{
		kioskID:  kioskID,
		url:      url,
		interval: interval,
		repo:     repo,
		client:   &http.Client{Timeout: 2 * time.Second},
		log:      log,
	}
}

// Run polls until ctx is cancelled.
func (p *BridgePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

type bridgeResponse struct {
	Status string `json:"status"` // "found" or "none"
	UID    string `json:"uid,omitempty"`
}

func (p *BridgePoller) poll(ctx context.Context) {
	uid := p.read(ctx)

	// only write on change; the session-state row fans out to subscribers
	// and a steady card must not generate an event storm
	if p.primed && equalUID(p.lastUID, uid) {
		return
	}
	if err := p.repo.SetCard(ctx, p.kioskID, uid); err != nil {
		p.log.Warn("bridge: session state write failed", zap.Error(err))
		return
	}
	p.lastUID = uid
	p.primed = true
}

// read returns the UID on the reader, or nil for "no card". Bridge errors are
// deliberately indistinguishable from no card.
func (p *BridgePoller) read(ctx context.Context) *string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/scan", nil)
	if err != nil {
		return nil
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var body bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if body.Status != "found" || body.UID == "" {
		return nil
	}
	return &body.UID
}

func equalUID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
