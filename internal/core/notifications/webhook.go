package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

const (
	HeaderSignature = "X-Signature"
	HeaderEventType = "X-Event-Type"
	HeaderEventID   = "X-Event-ID"
)

// WebhookPublisher posts each event payload to a fixed URL.
type WebhookPublisher struct {
	URL    string
	Secret string
	Client *http.Client
}

func NewWebhookPublisher(url, secret string) *WebhookPublisher {
	// Don't let slow receivers block the outbox
	return &WebhookPublisher{URL: url, Secret: secret, Client: &http.Client{Timeout: 5 * time.Second}}
}

// SignBody returns the hex HMAC-SHA256 of body, sent as X-Signature.
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (w *WebhookPublisher) Publish(ctx context.Context, ev domain.OutboxEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(ev.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "POS-Payments-Webhook/1.0")
	req.Header.Set(HeaderSignature, SignBody(ev.Payload, w.Secret))
	req.Header.Set(HeaderEventType, ev.Type)
	req.Header.Set(HeaderEventID, ev.ID.String())

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook receiver returned error: %d", resp.StatusCode)
}
