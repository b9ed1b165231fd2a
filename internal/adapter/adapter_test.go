package adapter_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/cortex/internal/adapter"
	"github.com/gosuda/cortex/internal/domain"
)

func TestExtractionClient_Extract(t *testing.T) {
	t.Parallel()

	t.Run("success decodes fields", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/extract", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req adapter.ExtractionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "s3://bucket/doc.pdf", req.FileURL)

			_ = json.NewEncoder(w).Encode(adapter.ExtractionResult{
				DocumentType: "vacation_request",
				KeyFields: []domain.ExtractedField{
					{Field: "days_requested", Value: "20"},
				},
			})
		}))
		defer srv.Close()

		c := adapter.NewExtractionClient(srv.URL, time.Second)
		result, err := c.Extract(context.Background(), adapter.ExtractionRequest{
			FileURL:  "s3://bucket/doc.pdf",
			MimeType: "application/pdf",
		})
		require.NoError(t, err)
		assert.Equal(t, "vacation_request", result.DocumentType)
		require.Len(t, result.KeyFields, 1)
		assert.Equal(t, "days_requested", result.KeyFields[0].Field)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := adapter.NewExtractionClient(srv.URL, time.Second)
		_, err := c.Extract(context.Background(), adapter.ExtractionRequest{FileURL: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("unparsable body is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := adapter.NewExtractionClient(srv.URL, time.Second)
		_, err := c.Extract(context.Background(), adapter.ExtractionRequest{FileURL: "x"})
		require.Error(t, err)
	})

	t.Run("timeout is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server's background read can detect the
			// client disconnect and cancel the request context; otherwise
			// srv.Close blocks on this connection forever.
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer srv.Close()

		c := adapter.NewExtractionClient(srv.URL, 50*time.Millisecond)
		_, err := c.Extract(context.Background(), adapter.ExtractionRequest{FileURL: "x"})
		require.Error(t, err)
	})
}

func TestEnrichmentClient_Lookup(t *testing.T) {
	t.Parallel()

	t.Run("success maps personnel fields", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "ergon", user)
			assert.Equal(t, "secret", pass)
			assert.Equal(t, "123456", r.URL.Query().Get("nome"))

			_, _ = w.Write([]byte(`[{
				"NOME_COMPLETO": "Maria Souza",
				"CARGO_DESCRICAO": "PROFESSOR DE MATEMATICA",
				"CATEGORIA": "",
				"MATRICULA": "123456",
				"TEMPO_SERVICO_ANOS": 8,
				"LOTACAO_ATUAL": "ESCOLA MUNICIPAL CENTRO",
				"SITUACAO_FUNCIONAL": "ATIVO"
			}]`))
		}))
		defer srv.Close()

		c := adapter.NewEnrichmentClient(srv.URL, "ergon", "secret", time.Second)
		data, err := c.Lookup(context.Background(), "123456")
		require.NoError(t, err)

		assert.Empty(t, data.Error)
		assert.Equal(t, "Maria Souza", data.Name)
		assert.Equal(t, "123456", data.Registration)
		assert.Equal(t, 8, data.TenureYears)
		assert.Equal(t, "ATIVO", data.FunctionalStatus)
		// Teaching staff is inferred from the role when the category is blank.
		assert.Equal(t, "MAGISTERIO", data.Category)
	})

	t.Run("blank category defaults to administrative", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"NOME_COMPLETO": "Joao Lima", "CARGO_DESCRICAO": "ASSISTENTE ADMINISTRATIVO"}]`))
		}))
		defer srv.Close()

		c := adapter.NewEnrichmentClient(srv.URL, "u", "p", time.Second)
		data, err := c.Lookup(context.Background(), "Joao Lima")
		require.NoError(t, err)
		assert.Equal(t, "ADMINISTRATIVO", data.Category)
	})

	tests := []struct {
		name    string
		handler http.HandlerFunc
		term    string
		errText string
	}{
		{
			name: "upstream error becomes error marker",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			term:    "123456",
			errText: "status 500",
		},
		{
			name: "empty result becomes error marker",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
			term:    "123456",
			errText: "not found",
		},
		{
			name: "unparsable body becomes error marker",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			term:    "123456",
			errText: "unparsable",
		},
		{
			name:    "empty search term becomes error marker",
			handler: func(_ http.ResponseWriter, _ *http.Request) {},
			term:    "  ",
			errText: "empty search term",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := adapter.NewEnrichmentClient(srv.URL, "u", "p", time.Second)
			data, err := c.Lookup(context.Background(), tt.term)
			require.NoError(t, err)
			require.NotNil(t, data)
			assert.Contains(t, data.Error, tt.errText)
		})
	}

	t.Run("transport failure is a real error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		srv.Close()

		c := adapter.NewEnrichmentClient(srv.URL, "u", "p", time.Second)
		_, err := c.Lookup(context.Background(), "123456")
		require.Error(t, err)
	})
}
