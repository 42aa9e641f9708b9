// Package adapter defines the external HTTP transport the submitter hands
// fully-formed gateway requests to, and contains its implementations.
// Transports carry bytes only: they do not retry, interpret status codes or
// parse gateway bodies.
package adapter

import (
	"context"
	"net/http"
)

const ContentTypeForm = "application/x-www-form-urlencoded"

// Request is a pre-encoded gateway request.
type Request struct {
	URL     string
	Method  string
	Headers http.Header
	Body    []byte
}

// NewFormPost builds a POST request carrying a form-encoded body.
func NewFormPost(url string, body []byte) Request {
	h := make(http.Header)
	h.Set("Content-Type", ContentTypeForm)
	return Request{URL: url, Method: http.MethodPost, Headers: h, Body: body}
}

// Transport performs one synchronous request/response exchange and returns
// the raw response body.
type Transport interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

func (f TransportFunc) Do(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}
