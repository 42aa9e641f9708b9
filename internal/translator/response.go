package translator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/outcome"
)

// Positions in the comma-delimited AIM response.
const (
	posResponseCode  = 0
	posReasonCode    = 2
	posReasonText    = 3
	posTransactionID = 6
)

var reasonCategories = map[string]outcome.ReasonCategory{
	"2":  outcome.ReasonCardDeclined,
	"3":  outcome.ReasonCardDeclined,
	"4":  outcome.ReasonCardDeclined,
	"6":  outcome.ReasonCardInfoInvalid,
	"7":  outcome.ReasonCardInfoInvalid,
	"8":  outcome.ReasonCardInfoInvalid,
	"9":  outcome.ReasonBankInfoInvalid,
	"10": outcome.ReasonBankInfoInvalid,
	"11": outcome.ReasonDuplicateTransaction,
	"17": outcome.ReasonUnsupportedCardType,
	"18": outcome.ReasonEcheckNotAccepted,
}

// Decode parses a raw gateway response body. Bodies too short to carry the
// positions the status code needs are reported as ErrMalformedResponse.
func Decode(raw string) (outcome.Outcome, error) {
	body := strings.TrimSpace(raw)
	if unescaped, err := url.QueryUnescape(body); err == nil {
		body = strings.TrimSpace(unescaped)
	}
	if body == "" {
		return outcome.Outcome{}, fmt.Errorf("%w: empty body", gwerr.ErrMalformedResponse)
	}

	fields := strings.Split(body, ",")
	code := strings.TrimSpace(fields[posResponseCode])

	switch code {
	case "1":
		if len(fields) <= posTransactionID {
			return outcome.Outcome{}, fmt.Errorf("%w: approved response has %d fields, need %d",
				gwerr.ErrMalformedResponse, len(fields), posTransactionID+1)
		}
		return outcome.Approved(strings.TrimSpace(fields[posTransactionID])), nil
	case "2":
		o := outcome.Declined()
		o.ReasonCode = at(fields, posReasonCode)
		return o, nil
	}

	if len(fields) <= posReasonCode {
		return outcome.Outcome{}, fmt.Errorf("%w: error response has %d fields, need %d",
			gwerr.ErrMalformedResponse, len(fields), posReasonCode+1)
	}
	reasonCode := at(fields, posReasonCode)
	category, known := reasonCategories[reasonCode]
	if !known {
		category = outcome.ReasonUnclassified
	}
	o := outcome.Error(category, at(fields, posReasonText))
	o.ResponseCode = code
	o.ReasonCode = reasonCode
	return o, nil
}

func at(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
