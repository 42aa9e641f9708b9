// Package orchestrator runs a transaction end to end: validation, submission,
// and classification of the gateway's answer, with tracing, metrics and an
// entry in the reporting store for every attempt.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/logger"
	"github.com/yourorg/gateway-normalizer/internal/outcome"
	"github.com/yourorg/gateway-normalizer/internal/reporting"
	"github.com/yourorg/gateway-normalizer/internal/standardize"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_transactions_total",
		Help: "Transactions processed, by gateway and final status.",
	}, []string{"gateway", "status"})

	processDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_process_duration_seconds",
		Help:    "Time spent validating and submitting a transaction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
)

func GetTransactionsTotal() *prometheus.CounterVec { return transactionsTotal }

func GetProcessDurationSeconds() *prometheus.HistogramVec { return processDurationSeconds }

// ValidatorInterface checks and completes a transaction before submission.
type ValidatorInterface interface {
	Validate(tx *transaction.Transaction) error
}

// SubmitterInterface sends a validated transaction and decodes the answer.
type SubmitterInterface interface {
	Submit(ctx context.Context, tx *transaction.Transaction) (outcome.Outcome, error)
}

// Result is what the caller gets back for a processed transaction. Outcome is
// populated whenever the gateway answered, including declines.
type Result struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchantId,omitempty"`
	Gateway    string          `json:"gateway"`
	TestMode   bool            `json:"testMode"`
	Outcome    outcome.Outcome `json:"outcome"`
}

type Orchestrator struct {
	validator ValidatorInterface
	submitter SubmitterInterface
	store     reporting.Store
	now       func() time.Time
}

func NewOrchestrator(v ValidatorInterface, s SubmitterInterface, store reporting.Store) *Orchestrator {
	if v == nil {
		panic("Validator cannot be nil")
	}
	if s == nil {
		panic("Submitter cannot be nil")
	}
	if store == nil {
		panic("Store cannot be nil")
	}
	return &Orchestrator{validator: v, submitter: s, store: store, now: time.Now}
}

// Process is ProcessForMerchant without a merchant id.
func (o *Orchestrator) Process(ctx context.Context, tx *transaction.Transaction) (Result, error) {
	return o.ProcessForMerchant(ctx, "", tx)
}

// ProcessForMerchant validates and submits tx. The error is one of:
//   - *gwerr.ValidationError when tx was not sent,
//   - any other validator error (a broken rule set), recorded as an error,
//   - *gwerr.TransportError when the exchange failed,
//   - *gwerr.TransactionError when the gateway declined or rejected it.
//
// A nil error means the transaction was approved.
func (o *Orchestrator) ProcessForMerchant(ctx context.Context, merchantID string, tx *transaction.Transaction) (Result, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Orchestrator.Process")
	defer span.End()

	start := o.now()
	gateway := tx.Gateway()
	log := logger.FromCtx(ctx).With(zap.String("gateway", gateway), zap.String("merchant_id", merchantID))

	result := Result{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		Gateway:    gateway,
		TestMode:   tx.TestMode(),
	}
	span.SetAttributes(
		attribute.String("transaction.id", result.ID),
		attribute.String("gateway", gateway),
		attribute.Bool("test_mode", result.TestMode),
	)

	entry := reporting.Entry{
		ID:         result.ID,
		RequestID:  logger.RequestIDFrom(ctx),
		MerchantID: merchantID,
		Gateway:    gateway,
		TestMode:   result.TestMode,
	}

	err := o.run(ctx, tx, &result, &entry)

	entry.Timestamp = o.now()
	entry.Amount, entry.Currency = amountOf(tx)
	if recErr := o.store.Record(ctx, entry); recErr != nil {
		log.Warn("failed to record transaction entry", zap.Error(recErr))
	}

	transactionsTotal.WithLabelValues(gateway, entry.Status).Inc()
	processDurationSeconds.WithLabelValues(gateway).Observe(o.now().Sub(start).Seconds())
	span.SetAttributes(attribute.String("transaction.status", entry.Status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, entry.Status)
		log.Info("transaction not approved",
			zap.String("id", result.ID),
			zap.String("status", entry.Status),
			zap.String("reason", entry.Reason),
			zap.Error(err),
		)
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	log.Info("transaction approved", zap.String("id", result.ID), zap.String("gateway_transaction_id", result.Outcome.TransactionID))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, tx *transaction.Transaction, result *Result, entry *reporting.Entry) error {
	if err := o.validator.Validate(tx); err != nil {
		var verr *gwerr.ValidationError
		if errors.As(err, &verr) {
			entry.Status = reporting.StatusInvalid
		} else {
			entry.Status = reporting.StatusError
		}
		entry.Detail = err.Error()
		return err
	}

	out, err := o.submitter.Submit(ctx, tx)
	if err != nil {
		entry.Status = reporting.StatusTransport
		var te *gwerr.TransportError
		if !errors.As(err, &te) {
			err = &gwerr.TransportError{Endpoint: tx.Profile().Endpoint, Err: err}
		}
		entry.Detail = err.Error()
		return err
	}

	result.Outcome = out
	entry.TransactionID = out.TransactionID
	entry.Reason = string(out.Reason)
	entry.Detail = out.RawDetail

	switch out.Status {
	case outcome.StatusApproved:
		entry.Status = reporting.StatusApproved
		return nil
	case outcome.StatusDeclined:
		entry.Status = reporting.StatusDeclined
	default:
		entry.Status = reporting.StatusError
	}
	return &gwerr.TransactionError{Outcome: out}
}

// amountOf reads the amount and currency as the gateway would see them.
// An unparsable amount is recorded as zero.
func amountOf(tx *transaction.Transaction) (decimal.Decimal, string) {
	var amount decimal.Decimal
	if v, ok := tx.Get("amount"); ok {
		if d, ok := standardize.ParseMoney(v); ok {
			amount = d.Round(2)
		}
	}
	var currency string
	if v, ok := tx.Get("currency_code"); ok {
		currency, _ = standardize.String(v)
	}
	return amount, currency
}
