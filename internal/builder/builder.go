// Package builder turns an API request into a Transaction for the
// requesting merchant's gateway.
package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/gateway-normalizer/internal/merchant"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

var (
	buildRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transaction_build_requests_total",
		Help: "Requests turned into transactions, by result.",
	}, []string{"result"})

	buildDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transaction_build_duration_seconds",
		Help:    "Time spent building a transaction from a request.",
		Buckets: prometheus.DefBuckets,
	})
)

func GetBuildRequestsTotal() *prometheus.CounterVec { return buildRequestsTotal }

func GetBuildDurationSeconds() prometheus.Histogram { return buildDurationSeconds }

// Address is the shared shape of billing and shipping addresses.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Fax       string `json:"fax,omitempty"`
}

type Card struct {
	Number     string `json:"number,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	CVV        string `json:"cvv,omitempty"`
}

type Customer struct {
	ID        string `json:"id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Email     string `json:"email,omitempty"`
	SendEmail *bool  `json:"send_email,omitempty"`
}

type Invoice struct {
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExternalRequest is the JSON body of POST /v1/transactions. Amounts are kept
// as json.Number so no precision is lost before money parsing.
type ExternalRequest struct {
	MerchantID      string         `json:"merchant_id"`
	Amount          json.Number    `json:"amount"`
	TaxAmount       json.Number    `json:"tax_amount,omitempty"`
	ShippingAmount  json.Number    `json:"shipping_amount,omitempty"`
	DutyAmount      json.Number    `json:"duty_amount,omitempty"`
	TaxExempt       *bool          `json:"tax_exempt,omitempty"`
	Currency        string         `json:"currency,omitempty"`
	PaymentType     string         `json:"payment_type,omitempty"`
	TransactionType string         `json:"transaction_type,omitempty"`
	TransactionID   string         `json:"transaction_id,omitempty"`
	TestMode        bool           `json:"test_mode,omitempty"`
	Invoice         Invoice        `json:"invoice,omitempty"`
	Customer        Customer       `json:"customer,omitempty"`
	Card            Card           `json:"card,omitempty"`
	Billing         Address        `json:"billing,omitempty"`
	Shipping        Address        `json:"shipping,omitempty"`
	GatewayFields   map[string]any `json:"gateway_fields,omitempty"`
}

// ParseRequest decodes body, keeping numbers in gateway_fields as json.Number.
func ParseRequest(body []byte) (ExternalRequest, error) {
	var req ExternalRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return ExternalRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}

// Builder resolves the merchant for a request and builds its transaction.
type Builder struct {
	merchantRepo merchant.Repository
}

func NewBuilder(repo merchant.Repository) *Builder {
	if repo == nil {
		panic("merchant.Repository cannot be nil")
	}
	return &Builder{merchantRepo: repo}
}

// Build looks up the merchant named in req and returns the transaction
// together with the merchant config it was built for.
func (b *Builder) Build(ctx context.Context, req ExternalRequest) (*transaction.Transaction, merchant.Config, error) {
	_, span := otel.Tracer("builder").Start(ctx, "Builder.Build")
	defer span.End()
	span.SetAttributes(attribute.String("merchant.id", req.MerchantID))

	timer := prometheus.NewTimer(buildDurationSeconds)
	defer timer.ObserveDuration()

	if req.MerchantID == "" {
		buildRequestsTotal.WithLabelValues("error").Inc()
		return nil, merchant.Config{}, errors.New("merchant_id is required")
	}
	cfg, err := b.merchantRepo.Get(req.MerchantID)
	if err != nil {
		buildRequestsTotal.WithLabelValues("error").Inc()
		return nil, merchant.Config{}, fmt.Errorf("failed to get merchant config: %w", err)
	}

	tx, err := Build(req, cfg)
	if err != nil {
		buildRequestsTotal.WithLabelValues("error").Inc()
		return nil, cfg, err
	}
	span.SetAttributes(attribute.String("gateway", cfg.Gateway))
	buildRequestsTotal.WithLabelValues("success").Inc()
	return tx, cfg, nil
}

// Build maps req onto a new transaction for cfg's gateway. Empty request
// fields are left unset so gateway defaults apply. Test mode is on when either
// the merchant or the request asks for it.
func Build(req ExternalRequest, cfg merchant.Config) (*transaction.Transaction, error) {
	tx, err := transaction.New(cfg.Gateway, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	tx.SetTestMode(cfg.TestMode || req.TestMode)

	setMoney(tx.SetAmount, req.Amount)
	setMoney(tx.SetTaxAmount, req.TaxAmount)
	setMoney(tx.SetShippingAmount, req.ShippingAmount)
	setMoney(tx.SetDutyAmount, req.DutyAmount)
	if req.TaxExempt != nil {
		tx.SetTaxExempt(*req.TaxExempt)
	}

	setString(tx.SetCurrencyCode, req.Currency)
	setString(tx.SetPaymentType, req.PaymentType)
	setString(tx.SetTransactionType, req.TransactionType)
	setString(tx.SetTransactionID, req.TransactionID)

	setString(tx.SetInvoiceNumber, req.Invoice.Number)
	setString(tx.SetInvoiceDescription, req.Invoice.Description)

	setString(tx.SetCustomerID, req.Customer.ID)
	setString(tx.SetCustomerIPAddress, req.Customer.IPAddress)
	setString(tx.SetCustomerEmail, req.Customer.Email)
	if req.Customer.SendEmail != nil {
		tx.SetSendCustomerEmail(*req.Customer.SendEmail)
	}

	setString(tx.SetCreditCardNumber, req.Card.Number)
	setString(tx.SetCreditCardExpirationDate, req.Card.Expiration)
	setString(tx.SetCreditCardCvvCode, req.Card.CVV)

	b := req.Billing
	setString(tx.SetBillingFirstName, b.FirstName)
	setString(tx.SetBillingLastName, b.LastName)
	setString(tx.SetBillingCompany, b.Company)
	setString(tx.SetBillingAddress, b.Address)
	setString(tx.SetBillingCity, b.City)
	setString(tx.SetBillingState, b.State)
	setString(tx.SetBillingCountry, b.Country)
	setString(tx.SetBillingZipCode, b.ZipCode)
	setString(tx.SetBillingPhoneNumber, b.Phone)
	setString(tx.SetBillingFaxNumber, b.Fax)

	// shipping phone and fax have no wire fields
	s := req.Shipping
	setString(tx.SetShippingFirstName, s.FirstName)
	setString(tx.SetShippingLastName, s.LastName)
	setString(tx.SetShippingCompany, s.Company)
	setString(tx.SetShippingAddress, s.Address)
	setString(tx.SetShippingCity, s.City)
	setString(tx.SetShippingState, s.State)
	setString(tx.SetShippingCountry, s.Country)
	setString(tx.SetShippingZipCode, s.ZipCode)

	for key, value := range req.GatewayFields {
		tx.SetGatewaySpecificField(key, value)
	}
	return tx, nil
}

func setString(set func(string), v string) {
	if v != "" {
		set(v)
	}
}

func setMoney(set func(any), v json.Number) {
	if v != "" {
		set(v)
	}
}
