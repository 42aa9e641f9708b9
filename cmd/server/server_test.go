package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
	adaptermock "github.com/yourorg/gateway-normalizer/internal/adapter/mock"
	"github.com/yourorg/gateway-normalizer/internal/config"
	"github.com/yourorg/gateway-normalizer/internal/orchestrator"
	"github.com/yourorg/gateway-normalizer/internal/reporting"
	"github.com/yourorg/gateway-normalizer/internal/telemetry"
)

func testConfig(gateway string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Environment: "test"},
		Server:  config.ServerConfig{Port: 8080},
		Gateway: config.GatewayConfig{ID: gateway, AccountNumber: "login", TransactionKey: "key", Timeout: time.Second},
		OTel:    config.OTelConfig{ServiceName: "gateway-normalizer-test"},
	}
}

// setupTestRouter wires the real pipeline over a mock transport.
func setupTestRouter(t *testing.T, transport adapter.Transport) (*gin.Engine, *reporting.MemoryStore) {
	t.Helper()
	return setupTestRouterWithConfig(t, testConfig("authorize_net"), transport)
}

func setupTestRouterWithConfig(t *testing.T, cfg *config.Config, transport adapter.Transport) (*gin.Engine, *reporting.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := reporting.NewMemoryStore()
	s, err := newServer(cfg, transport, store)
	require.NoError(t, err)
	return setupRouter(s, "gateway-normalizer-test"), store
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"merchant_id": defaultMerchantID,
		"amount":      19.99,
		"currency":    "USD",
		"card": map[string]interface{}{
			"number":     "4111 1111 1111 1111",
			"expiration": "12/2099",
			"cvv":        "123",
		},
		"billing": map[string]interface{}{
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"zip_code":   "12345",
		},
	}
}

func post(t *testing.T, router *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(p)
		require.NoError(t, err, "Failed to marshal payload")
	}
	req, err := http.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBuffer(body))
	require.NoError(t, err, "Failed to create request")
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessTransaction_Approved(t *testing.T) {
	transport := adaptermock.NewTransport("1,1,1,This transaction has been approved.,AUTH01,Y,2149186775")
	router, store := setupTestRouter(t, transport)

	w := post(t, router, validPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var result orchestrator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "authorize_net", result.Gateway)
	assert.Equal(t, "2149186775", result.Outcome.TransactionID)
	assert.Equal(t, 1, transport.Calls())

	entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
	require.Len(t, entries, 1)
	assert.Equal(t, w.Header().Get(requestIDHeader), entries[0].RequestID)
	assert.Equal(t, defaultMerchantID, entries[0].MerchantID)
}

func TestProcessTransaction_RequestIDIsPropagated(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport("1,1,1,ok,,,9"))

	body, _ := json.Marshal(validPayload())
	req, _ := http.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBuffer(body))
	req.Header.Set(requestIDHeader, "caller-id-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "caller-id-1", w.Header().Get(requestIDHeader))
}

func TestProcessTransaction_Declined(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport("2,1,2,This transaction has been declined.,,P,0"))

	w := post(t, router, validPayload())
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "declined by the financial institution", resp["error"])
}

func TestProcessTransaction_GatewayError(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport("3,1,11,A duplicate transaction has been submitted.,,P,0"))

	w := post(t, router, validPayload())
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate_transaction", resp["reason"])
}

func TestProcessTransaction_ValidationFailure(t *testing.T) {
	transport := adaptermock.NewTransport("")
	router, _ := setupTestRouter(t, transport)

	payload := validPayload()
	delete(payload, "card")
	payload["currency"] = "JPY"

	w := post(t, router, payload)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp struct {
		Fields []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	got := map[string]string{}
	for _, f := range resp.Fields {
		got[f.Field] = f.Reason
	}
	assert.Equal(t, "missing value", got["credit_card_number"])
	assert.Equal(t, "missing value", got["credit_card_expiration_date"])
	assert.Equal(t, "must be one of the allowed values", got["currency_code"])
	assert.Equal(t, 0, transport.Calls())
}

func TestProcessTransaction_ContractViolation(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport(""))

	t.Run("NotJSON", func(t *testing.T) {
		w := post(t, router, "this is not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingAmount", func(t *testing.T) {
		payload := validPayload()
		delete(payload, "amount")
		w := post(t, router, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "amount is required")
	})
}

func TestProcessTransaction_UnknownMerchant(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport(""))

	payload := validPayload()
	payload["merchant_id"] = "nobody"
	w := post(t, router, payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessTransaction_TransportFailure(t *testing.T) {
	transport := &adaptermock.Transport{
		DoFunc: func(context.Context, adapter.Request) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	router, store := setupTestRouter(t, transport)

	w := post(t, router, validPayload())
	assert.Equal(t, http.StatusBadGateway, w.Code)

	entries, _ := store.List(context.Background(), time.Time{}, time.Time{})
	require.Len(t, entries, 1)
	assert.Equal(t, reporting.StatusTransport, entries[0].Status)
}

func TestReport(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport("1,1,1,ok,,,42"))
	post(t, router, validPayload())
	post(t, router, validPayload())

	req, _ := http.NewRequest(http.MethodGet, "/v1/report", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var report reporting.RetrospectiveReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalRequests)
	assert.Equal(t, 2, report.Approved)
	assert.Equal(t, "39.98", report.ApprovedByCurrency["USD"].StringFixed(2))

	req, _ = http.NewRequest(http.MethodGet, "/v1/report?from=yesterday", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	router, _ := setupTestRouter(t, adaptermock.NewTransport(""))

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewServer_UnsupportedGateway(t *testing.T) {
	_, err := newServer(testConfig("payflow_pro"), adaptermock.NewTransport(""), reporting.NewMemoryStore())
	assert.Error(t, err)
}

func TestProcessTransaction_TransportFailureCarriesTraceID(t *testing.T) {
	previous := otel.GetTracerProvider()
	tel, err := telemetry.Init(telemetry.Config{Enabled: true, ServiceName: "gateway-normalizer-test", Writer: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tel.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})

	transport := &adaptermock.Transport{
		DoFunc: func(context.Context, adapter.Request) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	router, _ := setupTestRouter(t, transport)

	w := post(t, router, validPayload())
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["trace_id"], 32)
	assert.NotEmpty(t, resp["id"])
}

func TestProcessTransaction_NoTraceIDWhenTracingDisabled(t *testing.T) {
	transport := &adaptermock.Transport{
		DoFunc: func(context.Context, adapter.Request) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	router, _ := setupTestRouter(t, transport)

	w := post(t, router, validPayload())
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "trace_id")
}

func TestNewServer_FollowUpRules(t *testing.T) {
	payload := validPayload()
	payload["transaction_type"] = "CREDIT"

	t.Run("OffByDefault", func(t *testing.T) {
		router, _ := setupTestRouter(t, adaptermock.NewTransport("1,1,1,ok,,,42"))
		w := post(t, router, payload)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("Enabled", func(t *testing.T) {
		cfg := testConfig("authorize_net")
		cfg.Validation.FollowUpRules = true
		transport := adaptermock.NewTransport("1,1,1,ok,,,42")
		router, _ := setupTestRouterWithConfig(t, cfg, transport)

		w := post(t, router, payload)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"field":"transaction_id"`)
		assert.Zero(t, transport.Calls())
	})
}

func TestNewServer_ContractSchemaPath(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "request.schema.json")
	schema := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["merchant_id", "amount", "invoice"]
	}`
	require.NoError(t, os.WriteFile(schemaPath, []byte(schema), 0644))

	cfg := testConfig("authorize_net")
	cfg.Contract.SchemaPath = schemaPath
	router, _ := setupTestRouterWithConfig(t, cfg, adaptermock.NewTransport("1,1,1,ok,,,42"))

	w := post(t, router, validPayload())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invoice is required")

	payload := validPayload()
	payload["invoice"] = map[string]interface{}{"number": "INV-1"}
	w = post(t, router, payload)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("MissingFile", func(t *testing.T) {
		cfg := testConfig("authorize_net")
		cfg.Contract.SchemaPath = filepath.Join(t.TempDir(), "absent.json")
		_, err := newServer(cfg, adaptermock.NewTransport(""), reporting.NewMemoryStore())
		assert.Error(t, err)
	})
}
