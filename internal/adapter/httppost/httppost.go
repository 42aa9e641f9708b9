package httppost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
	"github.com/yourorg/gateway-normalizer/internal/logger"
)

// DefaultTimeout bounds a single gateway exchange.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a gateway body is read.
const maxResponseBytes = 1 << 20

// Transport posts requests with a plain net/http client.
type Transport struct {
	httpClient *http.Client
}

// New creates a Transport. A nil client gets one with DefaultTimeout.
func New(client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Transport{httpClient: client}
}

// NewWithTimeout creates a Transport whose client gives up after timeout.
func NewWithTimeout(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return New(&http.Client{Timeout: timeout})
}

// Do sends req and returns the response body regardless of HTTP status.
func (t *Transport) Do(ctx context.Context, req adapter.Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("httppost: failed to create http request: %w", err)
	}
	for k, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httppost: http client error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("httppost: failed to read response body: %w", err)
	}

	logger.FromCtx(ctx).Debug("gateway exchange finished",
		zap.String("url", req.URL),
		zap.Int("http_status", resp.StatusCode),
		zap.Int("body_length", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}
