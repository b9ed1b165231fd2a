package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gosuda/cortex/internal/domain"
)

// personnelRow mirrors one record of the personnel system's search response.
type personnelRow struct {
	FullName         string `json:"NOME_COMPLETO"`
	Role             string `json:"CARGO_DESCRICAO"`
	Category         string `json:"CATEGORIA"`
	Registration     string `json:"MATRICULA"`
	TenureYears      int    `json:"TEMPO_SERVICO_ANOS"`
	Assignment       string `json:"LOTACAO_ATUAL"`
	FunctionalStatus string `json:"SITUACAO_FUNCIONAL"`
}

// EnrichmentClient looks up a personnel record by name or registration
// number. A "not found" or upstream HTTP error is returned as data (an
// EnrichedData with Error set), not as a Go error: per the adapter contract
// the error payload is valid output and the pipeline proceeds to human
// validation either way. Only transport/context failures return an error.
type EnrichmentClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewEnrichmentClient(baseURL, username, password string, timeout time.Duration) *EnrichmentClient {
	return &EnrichmentClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *EnrichmentClient) Lookup(ctx context.Context, searchTerm string) (*domain.EnrichedData, error) {
	if strings.TrimSpace(searchTerm) == "" {
		return &domain.EnrichedData{Error: "empty search term"}, nil
	}

	reqURL := c.baseURL + "/servidores?nome=" + url.QueryEscape(searchTerm)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("adapter.EnrichmentClient.Lookup: build request: %w", err)
	}
	httpReq.SetBasicAuth(c.username, c.password)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("adapter.EnrichmentClient.Lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.EnrichedData{Error: fmt.Sprintf("personnel system returned status %d", resp.StatusCode)}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("adapter.EnrichmentClient.Lookup: read body: %w", err)
	}

	var rows []personnelRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return &domain.EnrichedData{Error: "unparsable personnel response"}, nil
	}

	if len(rows) == 0 {
		return &domain.EnrichedData{Error: "personnel record not found"}, nil
	}

	row := rows[0]
	category := row.Category
	if category == "" {
		// The personnel system does not always fill the category column;
		// teaching staff is identified by role description.
		if strings.Contains(strings.ToUpper(row.Role), "PROFESSOR") {
			category = "MAGISTERIO"
		} else {
			category = "ADMINISTRATIVO"
		}
	}

	return &domain.EnrichedData{
		Name:             row.FullName,
		Role:             row.Role,
		Category:         category,
		Registration:     row.Registration,
		TenureYears:      row.TenureYears,
		Assignment:       row.Assignment,
		FunctionalStatus: row.FunctionalStatus,
	}, nil
}
