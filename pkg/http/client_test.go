package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSendsQueryAndAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "market-scope-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"value":7}`))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithUserAgent("market-scope-test"))
	var out struct {
		Value int `json:"value"`
	}
	err := c.Do(context.Background(), Request{
		Method: MethodGet,
		URL:    srv.URL,
		Query:  url.Values{"range": {"1mo"}, "interval": {"1d"}},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, 7, out.Value)
}

func TestClient_PostEncodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"window":[[1,2]]}`, string(b))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	payload := map[string]interface{}{"window": [][]float64{{1, 2}}}
	err := NewClient().Do(context.Background(), Request{Method: MethodPost, URL: srv.URL, JSON: payload}, nil)
	require.NoError(t, err)
}

func TestClient_HeaderOverridesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "override", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("default"))
	err := c.Do(context.Background(), Request{
		Method: MethodGet,
		URL:    srv.URL,
		Header: map[string]string{"User-Agent": "override"},
	}, nil)
	require.NoError(t, err)
}

func TestClient_NonSuccessIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient().Do(context.Background(), Request{Method: MethodGet, URL: srv.URL}, &out)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Body, "model offline")
	assert.Nil(t, out)
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient().Do(context.Background(), Request{Method: MethodGet, URL: srv.URL}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}
