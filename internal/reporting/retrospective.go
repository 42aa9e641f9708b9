package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry statuses. Approved, declined and errored come from the gateway;
// invalid and transport failures never reached a gateway verdict.
const (
	StatusApproved  = "APPROVED"
	StatusDeclined  = "DECLINED"
	StatusError     = "ERROR"
	StatusInvalid   = "INVALID"
	StatusTransport = "TRANSPORT_FAILURE"
)

// Entry is one processed transaction attempt.
type Entry struct {
	ID            string
	Timestamp     time.Time
	RequestID     string
	MerchantID    string
	Gateway       string
	Status        string
	Amount        decimal.Decimal
	Currency      string
	TransactionID string
	Reason        string // outcome reason category, if any
	Detail        string
	TestMode      bool
}

// RetrospectiveReport summarises a set of entries.
type RetrospectiveReport struct {
	TotalRequests      int                        `json:"totalRequests"`
	Approved           int                        `json:"approved"`
	Declined           int                        `json:"declined"`
	Errored            int                        `json:"errored"`
	Invalid            int                        `json:"invalid"`
	TransportFailures  int                        `json:"transportFailures"`
	ApprovedByCurrency map[string]decimal.Decimal `json:"approvedByCurrency"`
	ReasonBreakdown    map[string]int             `json:"reasonBreakdown"`
	GatewayUsage       map[string]int             `json:"gatewayUsage"`
	DateFrom           time.Time                  `json:"dateFrom"`
	DateTo             time.Time                  `json:"dateTo"`
	ProcessingDuration time.Duration              `json:"processingDuration"`
}

type RetrospectiveReporter struct{}

func NewRetrospectiveReporter() *RetrospectiveReporter {
	return &RetrospectiveReporter{}
}

// GenerateRetrospective aggregates entries. Approved amounts are summed per
// currency only; test-mode entries are counted but never add to amounts.
func (rr *RetrospectiveReporter) GenerateRetrospective(entries []Entry) *RetrospectiveReport {
	report := &RetrospectiveReport{
		ApprovedByCurrency: make(map[string]decimal.Decimal),
		ReasonBreakdown:    make(map[string]int),
		GatewayUsage:       make(map[string]int),
	}

	for i, e := range entries {
		report.TotalRequests++

		if i == 0 || e.Timestamp.Before(report.DateFrom) {
			report.DateFrom = e.Timestamp
		}
		if i == 0 || e.Timestamp.After(report.DateTo) {
			report.DateTo = e.Timestamp
		}

		if e.Gateway != "" {
			report.GatewayUsage[e.Gateway]++
		}
		if e.Reason != "" {
			report.ReasonBreakdown[e.Reason]++
		}

		switch e.Status {
		case StatusApproved:
			report.Approved++
			if !e.TestMode {
				report.ApprovedByCurrency[e.Currency] = report.ApprovedByCurrency[e.Currency].Add(e.Amount)
			}
		case StatusDeclined:
			report.Declined++
		case StatusError:
			report.Errored++
		case StatusInvalid:
			report.Invalid++
		case StatusTransport:
			report.TransportFailures++
		}
	}

	report.ProcessingDuration = report.DateTo.Sub(report.DateFrom)
	return report
}
