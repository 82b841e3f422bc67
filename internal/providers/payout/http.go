package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// HTTPTransport posts payout instructions to the processor's REST hook.
type HTTPTransport struct {
	cfg    Config
	client *http.Client
}

func NewHTTP(cfg Config) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Dispatch(ctx context.Context, inst Instruction) error {
	body, err := json.Marshal(inst)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payout dispatch failed: status %d", resp.StatusCode)
	}
	return nil
}
