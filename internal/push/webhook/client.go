package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client delivers alert notifications to an HTTP webhook. When a secret is
// configured, requests carry a millisecond timestamp and an HMAC-SHA256
// signature as query parameters so the receiver can verify origin.
type Client struct {
	webhook string
	secret  string
	client  *http.Client
}

func NewClient(webhook, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		webhook: webhook,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

// Payload is the notification body.
type Payload struct {
	Symbol        string  `json:"symbol"`
	Level         string  `json:"level"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Message       string  `json:"message"`
	Timestamp     string  `json:"timestamp"`
}

// Send posts the payload. Non-2xx responses are returned as errors.
func (c *Client) Send(ctx context.Context, p Payload) error {
	if c.webhook == "" {
		return fmt.Errorf("webhook url not configured")
	}

	target := c.webhook
	if c.secret != "" {
		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		sep := "?"
		if bytes.ContainsRune([]byte(target), '?') {
			sep = "&"
		}
		target += sep + "timestamp=" + ts + "&sign=" + url.QueryEscape(c.sign(ts))
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sign(timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(timestamp + "\n" + c.secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
