package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/logger"
	"github.com/yourorg/gateway-normalizer/internal/outcome"
	"github.com/yourorg/gateway-normalizer/internal/reporting"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(tx *transaction.Transaction) error {
	args := m.Called(tx)
	return args.Error(0)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, tx *transaction.Transaction) (outcome.Outcome, error) {
	args := m.Called(ctx, tx)
	out, _ := args.Get(0).(outcome.Outcome)
	return out, args.Error(1)
}

type failingStore struct{}

func (failingStore) Record(context.Context, reporting.Entry) error { return errors.New("disk full") }
func (failingStore) List(context.Context, time.Time, time.Time) ([]reporting.Entry, error) {
	return nil, nil
}

func newTestTransaction(t *testing.T) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New("authorize_net", transaction.Credentials{AccountNumber: "login", TransactionKey: "key"})
	require.NoError(t, err)
	tx.SetAmount("19.99")
	tx.SetCurrencyCode("USD")
	return tx
}

func TestNewOrchestrator(t *testing.T) {
	v := new(MockValidator)
	s := new(MockSubmitter)
	store := reporting.NewMemoryStore()

	orc := NewOrchestrator(v, s, store)
	assert.NotNil(t, orc)
	assert.Equal(t, v, orc.validator)
	assert.Equal(t, s, orc.submitter)

	assert.Panics(t, func() { NewOrchestrator(nil, s, store) }, "Should panic if validator is nil")
	assert.Panics(t, func() { NewOrchestrator(v, nil, store) }, "Should panic if submitter is nil")
	assert.Panics(t, func() { NewOrchestrator(v, s, nil) }, "Should panic if store is nil")
}

func TestOrchestrator_Process_Approved(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)
	store := reporting.NewMemoryStore()

	v.On("Validate", tx).Return(nil).Once()
	s.On("Submit", mock.Anything, tx).Return(outcome.Approved("12345678"), nil).Once()

	before := testutil.ToFloat64(GetTransactionsTotal().WithLabelValues("authorize_net", reporting.StatusApproved))

	ctx := logger.WithRequestID(context.Background(), "req-42")
	result, err := NewOrchestrator(v, s, store).ProcessForMerchant(ctx, "merchant-1", tx)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "merchant-1", result.MerchantID)
	assert.Equal(t, "authorize_net", result.Gateway)
	assert.True(t, result.Outcome.IsApproved())
	assert.Equal(t, "12345678", result.Outcome.TransactionID)

	entries, err := store.List(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ID, entries[0].ID)
	assert.Equal(t, "req-42", entries[0].RequestID)
	assert.Equal(t, reporting.StatusApproved, entries[0].Status)
	assert.Equal(t, "19.99", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "USD", entries[0].Currency)
	assert.Equal(t, "12345678", entries[0].TransactionID)

	after := testutil.ToFloat64(GetTransactionsTotal().WithLabelValues("authorize_net", reporting.StatusApproved))
	assert.Equal(t, before+1, after)

	v.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestOrchestrator_Process_ValidationFailureNeverSubmits(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)
	store := reporting.NewMemoryStore()

	verr := &gwerr.ValidationError{Fields: []gwerr.FieldError{{Field: "amount", Reason: "missing value"}}}
	v.On("Validate", tx).Return(verr).Once()

	_, err := NewOrchestrator(v, s, store).Process(context.Background(), tx)

	var got *gwerr.ValidationError
	require.ErrorAs(t, err, &got)
	assert.True(t, got.Has("amount"))
	s.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

	entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
	require.Len(t, entries, 1)
	assert.Equal(t, reporting.StatusInvalid, entries[0].Status)
}

func TestOrchestrator_Process_ValidatorFailureIsNotInvalid(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)
	store := reporting.NewMemoryStore()

	ruleErr := errors.New("validation: rule ID 'sum' did not evaluate to a boolean (got float64)")
	v.On("Validate", tx).Return(ruleErr).Once()

	before := testutil.ToFloat64(GetTransactionsTotal().WithLabelValues("authorize_net", reporting.StatusError))
	_, err := NewOrchestrator(v, s, store).Process(context.Background(), tx)

	require.ErrorIs(t, err, ruleErr)
	var verr *gwerr.ValidationError
	assert.False(t, errors.As(err, &verr))
	s.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

	entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
	require.Len(t, entries, 1)
	assert.Equal(t, reporting.StatusError, entries[0].Status)
	assert.Equal(t, ruleErr.Error(), entries[0].Detail)
	assert.Equal(t, before+1, testutil.ToFloat64(GetTransactionsTotal().WithLabelValues("authorize_net", reporting.StatusError)))
}

func TestOrchestrator_Process_DeclinedAndErrorOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		out        outcome.Outcome
		wantStatus string
		wantReason outcome.ReasonCategory
	}{
		{"Declined", outcome.Declined(), reporting.StatusDeclined, outcome.ReasonNone},
		{"CardInfoInvalid", outcome.Error(outcome.ReasonCardInfoInvalid, "The credit card number is invalid."), reporting.StatusError, outcome.ReasonCardInfoInvalid},
		{"Duplicate", outcome.Error(outcome.ReasonDuplicateTransaction, "A duplicate transaction has been submitted."), reporting.StatusError, outcome.ReasonDuplicateTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTestTransaction(t)
			v := new(MockValidator)
			s := new(MockSubmitter)
			store := reporting.NewMemoryStore()

			v.On("Validate", tx).Return(nil)
			s.On("Submit", mock.Anything, tx).Return(tt.out, nil)

			result, err := NewOrchestrator(v, s, store).Process(context.Background(), tx)

			var txErr *gwerr.TransactionError
			require.ErrorAs(t, err, &txErr)
			assert.Equal(t, tt.wantReason, txErr.Reason())
			assert.Equal(t, tt.out, result.Outcome)

			entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantStatus, entries[0].Status)
			assert.Equal(t, string(tt.wantReason), entries[0].Reason)
		})
	}
}

func TestOrchestrator_Process_TransportFailure(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)
	store := reporting.NewMemoryStore()

	v.On("Validate", tx).Return(nil)
	s.On("Submit", mock.Anything, tx).Return(outcome.Outcome{}, errors.New("connection refused"))

	_, err := NewOrchestrator(v, s, store).Process(context.Background(), tx)

	var te *gwerr.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tx.Profile().Endpoint, te.Endpoint)
	var txErr *gwerr.TransactionError
	assert.False(t, errors.As(err, &txErr), "transport failures are not transaction errors")

	entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
	require.Len(t, entries, 1)
	assert.Equal(t, reporting.StatusTransport, entries[0].Status)
}

func TestOrchestrator_Process_StoreFailureDoesNotFailTransaction(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)

	v.On("Validate", tx).Return(nil)
	s.On("Submit", mock.Anything, tx).Return(outcome.Approved("1"), nil)

	result, err := NewOrchestrator(v, s, failingStore{}).Process(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, result.Outcome.IsApproved())
}

func histogramCount(t *testing.T, gateway string) uint64 {
	t.Helper()
	metric, ok := GetProcessDurationSeconds().WithLabelValues(gateway).(prometheus.Metric)
	require.True(t, ok)
	var m dto.Metric
	require.NoError(t, metric.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestOrchestrator_Metrics_DurationObserved(t *testing.T) {
	tx := newTestTransaction(t)
	v := new(MockValidator)
	s := new(MockSubmitter)

	v.On("Validate", tx).Return(nil)
	s.On("Submit", mock.Anything, tx).Return(outcome.Approved("1"), nil)

	initialCount := histogramCount(t, "authorize_net")
	_, err := NewOrchestrator(v, s, reporting.NewMemoryStore()).Process(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, initialCount+1, histogramCount(t, "authorize_net"))
}
