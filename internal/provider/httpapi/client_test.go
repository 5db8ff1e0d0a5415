package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	}, slog.New(slog.DiscardHandler))
}

func sampleTarget() provider.Target {
	return provider.Target{
		DirectoryID: 1,
		Name:        "Product Hunt",
		URL:         "https://producthunt.example.com",
	}
}

func TestClient_DetectForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/detect-form", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Target provider.Target `json:"target"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1), req.Target.DirectoryID)

		json.NewEncoder(w).Encode(domain.FormStructure{
			Fields: []domain.FormField{
				{Name: "name", Selector: "#name", Required: true},
			},
			SubmitButtonSelector: "#submit",
			StepCount:            1,
		})
	})

	form, err := client.DetectForm(context.Background(), sampleTarget())
	require.NoError(t, err)

	require.Len(t, form.Fields, 1)
	assert.Equal(t, "#name", form.Fields[0].Selector)
	assert.Equal(t, "#submit", form.SubmitButtonSelector)
}

func TestClient_DetectForm_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "browser pool exhausted", http.StatusServiceUnavailable)
	})

	_, err := client.DetectForm(context.Background(), sampleTarget())
	require.Error(t, err)

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "detect", perr.Op)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/login", r.URL.Path)

		var req struct {
			Credentials provider.Credentials `json:"credentials"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme", req.Credentials.Username)

		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Login(context.Background(), sampleTarget(), provider.Credentials{
		Username: "acme",
		Password: "secret",
	})
	assert.NoError(t, err)
}

func TestClient_FillStep(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/fill-step", r.URL.Path)

		var req struct {
			Step   int               `json:"step"`
			Values map[string]string `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2, req.Step)
		assert.Equal(t, "Acme", req.Values["#name"])

		w.WriteHeader(http.StatusOK)
	})

	err := client.FillStep(context.Background(), sampleTarget(), 2, map[string]string{"#name": "Acme"})
	assert.NoError(t, err)
}

func TestClient_Submit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/submit", r.URL.Path)
		json.NewEncoder(w).Encode(provider.SubmitResult{
			Status:     domain.StatusSubmitted,
			ListingURL: "https://producthunt.example.com/posts/acme",
			Message:    "pending moderation",
		})
	})

	result, err := client.Submit(context.Background(), sampleTarget(), map[string]string{"#name": "Acme"}, &domain.FormStructure{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, result.Status)
	assert.Equal(t, "https://producthunt.example.com/posts/acme", result.ListingURL)
}

func TestClient_Submit_UnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "maybe"})
	})

	_, err := client.Submit(context.Background(), sampleTarget(), nil, &domain.FormStructure{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DetectForm(ctx, sampleTarget())
	assert.Error(t, err)
}
