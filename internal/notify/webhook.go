package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "Signature"
	// DefaultSecret is used when no webhook secret is configured.
	DefaultSecret = "very-long-secret"
)

type Webhook struct {
	URL        string
	Secret     string
	HTTPClient *http.Client
	logger     *zap.Logger
}

func NewWebhook(url, secret string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		URL:        url,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func (w *Webhook) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(w.Secret, body))

	w.logger.Debug("sending webhook", zap.String("url", w.URL), zap.String("event", event.Event))

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook %s: %w", event.Event, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send webhook %s: bad status: %s", event.Event, resp.Status)
	}

	w.logger.Info("webhook delivered", zap.String("event", event.Event), zap.Int("status", resp.StatusCode))
	return nil
}

// Sign returns the hex encoded HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body.
func Verify(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
