package prediction

import (
	"context"
	"fmt"
	"strings"
	"time"

	xhttp "github.com/Pulkit320/market-scope/pkg/http"
)

// HTTPServiceBase is the shared JSON transport for predictors served over HTTP.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a client for baseURL. A non-positive timeout falls back to 5s.
func NewHTTPServiceBase(baseURL string, timeout time.Duration) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// GetJSON fetches `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return b.do(ctx, xhttp.MethodGet, path, nil, dest)
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	return b.do(ctx, xhttp.MethodPost, path, payload, dest)
}

func (b *HTTPServiceBase) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("prediction http client not initialized")
	}
	req := xhttp.Request{Method: method, URL: b.baseURL + path, JSON: payload}
	if err := b.client.Do(ctx, req, dest); err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}
	return nil
}
