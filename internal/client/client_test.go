// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-converter/internal/httputil"
	"github.com/pdiddy/deck-converter/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	log, _ := test.NewNullLogger()
	c, err := New(ts.URL+"/", log)
	require.NoError(t, err)
	return c
}

func TestClient_Convert(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "pptx2pdf", r.FormValue("type"))

		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "Q3 Review.pptx", fh.Filename)
		assert.Equal(t, "PK-deck", string(data))

		w.Header().Set("Content-Type", types.ContentTypePDF)
		w.Header().Set("Content-Disposition", `attachment; filename="Q3 Review.pdf"`)
		w.Write([]byte("%PDF-1.7"))
	})

	doc, err := c.Convert(context.Background(), types.PPTXToPDF, "Q3 Review.pptx", []byte("PK-deck"))
	require.NoError(t, err)
	assert.Equal(t, "Q3 Review.pdf", doc.Filename)
	assert.Equal(t, types.ContentTypePDF, doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.7"), doc.Data)
}

func TestClient_ConvertDefaultFilename(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("PK"))
	})

	doc, err := c.Convert(context.Background(), types.PDFToPPTX, "x.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "converted_presentation.pptx", doc.Filename)
}

func TestClient_ConvertRetriesRateLimit(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("PK"))
	})

	_, err := c.Convert(context.Background(), types.PDFToPPTX, "x.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClient_ConvertError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error", http.StatusBadRequest, `{"error":"Please upload a PDF file"}`, "Please upload a PDF file"},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.Convert(context.Background(), types.PDFToPPTX, "x.pdf", []byte("%PDF"))
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	assert.NoError(t, c.Health(context.Background()))

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	})
	assert.Error(t, c.Health(context.Background()))
}

func TestClient_Conversions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversions", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]types.ConversionRecord{
			{ID: "a", Direction: types.PDFToPPTX, Status: types.ConversionDone},
		})
	})

	recs, err := c.Conversions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)
}

func TestNew_RejectsBadURL(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := New("localhost:10000", log)
	assert.Error(t, err)
	_, err = New("ftp://example.com", log)
	assert.Error(t, err)
}
