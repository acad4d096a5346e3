// Package render talks to the external certificate renderer service.
// The renderer is a black box: given a participant name, an event
// title, and a certificate id it produces an artifact and returns a
// retrievable URL.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Request struct {
	ParticipantName string `json:"participantName"`
	EventTitle      string `json:"eventTitle"`
	CertificateID   int64  `json:"certificateId"`
}

type Renderer interface {
	// Render produces the artifact and returns its URL.
	Render(ctx context.Context, req Request) (string, error)
	// Discard asks the renderer to drop a previously rendered
	// artifact. Best effort; callers tolerate failure.
	Discard(ctx context.Context, url string) error
}

type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

var _ Renderer = (*HTTPRenderer)(nil)

func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("(*HTTPRenderer).Render: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("(*HTTPRenderer).Render: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("(*HTTPRenderer).Render: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("(*HTTPRenderer).Render: renderer replied %s", resp.Status)
	}

	var respBody struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("(*HTTPRenderer).Render: %w", err)
	}
	if respBody.URL == "" {
		return "", fmt.Errorf("(*HTTPRenderer).Render: renderer replied with a blank url")
	}
	return respBody.URL, nil
}

func (r *HTTPRenderer) Discard(ctx context.Context, url string) error {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return fmt.Errorf("(*HTTPRenderer).Discard: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/discard", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("(*HTTPRenderer).Discard: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("(*HTTPRenderer).Discard: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("(*HTTPRenderer).Discard: renderer replied %s", resp.Status)
	}
	return nil
}
