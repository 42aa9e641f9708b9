// Package outcome holds the normalized result of a gateway exchange.
package outcome

import "fmt"

// Status is the coarse result of a submitted transaction.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
	StatusError    Status = "ERROR"
)

// ReasonCategory classifies an error response from the gateway.
type ReasonCategory string

const (
	ReasonNone                 ReasonCategory = ""
	ReasonCardDeclined         ReasonCategory = "card_declined"
	ReasonCardInfoInvalid      ReasonCategory = "card_info_invalid"
	ReasonBankInfoInvalid      ReasonCategory = "bank_info_invalid"
	ReasonDuplicateTransaction ReasonCategory = "duplicate_transaction"
	ReasonUnsupportedCardType  ReasonCategory = "unsupported_card_type"
	ReasonEcheckNotAccepted    ReasonCategory = "echeck_not_accepted"
	ReasonUnclassified         ReasonCategory = "unclassified"
)

// Description is a fixed English rendering of the category. Callers that
// localise messages should key off the category itself.
func (r ReasonCategory) Description() string {
	switch r {
	case ReasonCardDeclined:
		return "the credit card entered was declined"
	case ReasonCardInfoInvalid:
		return "the credit card information entered is invalid"
	case ReasonBankInfoInvalid:
		return "the bank account information entered is invalid"
	case ReasonDuplicateTransaction:
		return "the transaction appears to be a duplicate and was not processed"
	case ReasonUnsupportedCardType:
		return "the type of credit card entered is not accepted"
	case ReasonEcheckNotAccepted:
		return "electronic checks are not accepted"
	case ReasonUnclassified:
		return "there was an error processing the transaction"
	default:
		return ""
	}
}

// Outcome is the decoded gateway response.
type Outcome struct {
	Status        Status         `json:"status"`
	TransactionID string         `json:"transactionId,omitempty"`
	Reason        ReasonCategory `json:"reason,omitempty"`
	RawDetail     string         `json:"rawDetail,omitempty"`
	ResponseCode  string         `json:"responseCode"`
	ReasonCode    string         `json:"reasonCode,omitempty"`
}

func Approved(transactionID string) Outcome {
	return Outcome{Status: StatusApproved, TransactionID: transactionID, ResponseCode: "1"}
}

func Declined() Outcome {
	return Outcome{Status: StatusDeclined, ResponseCode: "2"}
}

func Error(reason ReasonCategory, rawDetail string) Outcome {
	return Outcome{Status: StatusError, Reason: reason, RawDetail: rawDetail}
}

func (o Outcome) IsApproved() bool {
	return o.Status == StatusApproved
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusApproved:
		return fmt.Sprintf("approved (transaction %s)", o.TransactionID)
	case StatusDeclined:
		return "declined by the financial institution"
	default:
		if o.Reason == ReasonUnclassified && o.RawDetail != "" {
			return fmt.Sprintf("%s: %s", o.Reason.Description(), o.RawDetail)
		}
		return o.Reason.Description()
	}
}
