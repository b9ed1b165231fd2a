// Package adapter holds the HTTP clients for the external collaborators the
// pipeline consumes: the document extraction model and the personnel system.
// Both are assumed to be latent and unreliable; every call carries a bounded
// timeout and the caller decides the hard/soft failure policy.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gosuda/cortex/internal/domain"
)

// ExtractionRequest is the adapter input. Either FileURL or Content (base64)
// is set, depending on how the document was submitted.
type ExtractionRequest struct {
	FileURL  string `json:"fileUrl,omitempty"`
	Content  string `json:"content,omitempty"`
	MimeType string `json:"mimeType"`
}

// ExtractionResult is the flat field set the extraction model produced.
type ExtractionResult struct {
	DocumentType string                  `json:"documentType"`
	KeyFields    []domain.ExtractedField `json:"keyFields"`
}

// ExtractionClient calls the document extraction service. Any non-2xx
// response, timeout or unparsable payload is an error; the workflow treats
// extraction errors as hard failures.
type ExtractionClient struct {
	baseURL string
	client  *http.Client
}

func NewExtractionClient(baseURL string, timeout time.Duration) *ExtractionClient {
	return &ExtractionClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *ExtractionClient) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: read body: %w", err)
	}

	var result ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("adapter.ExtractionClient.Extract: decode: %w", err)
	}

	return &result, nil
}
