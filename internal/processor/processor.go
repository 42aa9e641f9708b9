// Package processor submits validated transactions to their gateway and
// decodes the answer into an outcome.
package processor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/logger"
	"github.com/yourorg/gateway-normalizer/internal/outcome"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
	"github.com/yourorg/gateway-normalizer/internal/translator"
)

const (
	// SandboxCardNumber is the known-good card used in authorize_net test mode.
	SandboxCardNumber = "4007000000027"
	testRequestField  = "x_test_request"
)

// Processor owns the transport. It is safe for concurrent use across
// different transactions.
type Processor struct {
	transport adapter.Transport
	now       func() time.Time
	// endpoints overrides a profile's endpoint, keyed by gateway id.
	endpoints map[string]string
}

type Option func(*Processor)

// WithClock pins the clock used for test-mode expirations and date encoding.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithEndpoint sends requests for gateway to url instead of the profile endpoint.
func WithEndpoint(gateway, url string) Option {
	return func(p *Processor) { p.endpoints[gateway] = url }
}

func NewProcessor(transport adapter.Transport, opts ...Option) *Processor {
	if transport == nil {
		panic("transport cannot be nil")
	}
	p := &Processor{transport: transport, now: time.Now, endpoints: make(map[string]string)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit sends tx to its gateway. tx must have passed validation; submitting
// an unvalidated transaction is a programmer error and panics.
//
// A nil error means the gateway answered; the outcome may still be a decline.
// Network failures and undecodable bodies are returned as *gwerr.TransportError.
func (p *Processor) Submit(ctx context.Context, tx *transaction.Transaction) (outcome.Outcome, error) {
	if tx == nil {
		panic("processor: transaction cannot be nil")
	}
	if !tx.Validated() {
		panic("processor: transaction submitted without passing validation")
	}

	profile := tx.Profile()
	endpoint := p.endpoint(profile.ID, profile.Endpoint)
	now := p.now()
	log := logger.FromCtx(ctx).With(zap.String("gateway", profile.ID), zap.Bool("test_mode", tx.TestMode()))

	wire := tx
	if tx.TestMode() && profile.SandboxCard {
		wire = sandboxed(tx, now)
	}
	form := translator.Translate(wire, now)

	log.Debug("data being sent to gateway",
		zap.String("card", logger.MaskCard(form.Get("x_card_num"))),
		zap.String("tran_key", logger.Secret(form.Get("x_tran_key"))),
		zap.String("amount", form.Get("x_amount")),
		zap.String("type", form.Get("x_type")),
	)

	var raw []byte
	if tx.TestMode() && profile.CannedResponse != "" {
		raw = []byte(profile.CannedResponse)
		log.Debug("test mode: using canned gateway response")
	} else {
		var err error
		raw, err = p.transport.Do(ctx, adapter.NewFormPost(endpoint, []byte(form.Encode())))
		if err != nil {
			log.Error("gateway request failed", zap.Error(err))
			return outcome.Outcome{}, &gwerr.TransportError{Endpoint: endpoint, Err: err}
		}
	}

	log.Debug("data received from gateway", zap.Int("length", len(raw)))

	result, err := translator.Decode(string(raw))
	if err != nil {
		log.Error("gateway response could not be decoded", zap.Error(err))
		return outcome.Outcome{}, &gwerr.TransportError{Endpoint: endpoint, Err: err}
	}
	return result, nil
}

func (p *Processor) endpoint(gateway, fallback string) string {
	if url, ok := p.endpoints[gateway]; ok && url != "" {
		return url
	}
	return fallback
}

// sandboxed returns a copy of tx carrying the sandbox card and test flag.
func sandboxed(tx *transaction.Transaction, now time.Time) *transaction.Transaction {
	clone := tx.Clone()
	clone.SetGatewaySpecificField(testRequestField, "TRUE")
	clone.SetCreditCardNumber(SandboxCardNumber)
	clone.SetCreditCardExpirationDate(now.AddDate(1, 0, 0).Format("01/2006"))
	return clone
}

// IsTransportError reports whether err came from the exchange rather than the gateway's verdict.
func IsTransportError(err error) bool {
	var te *gwerr.TransportError
	return errors.As(err, &te)
}
