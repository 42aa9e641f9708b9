package transaction

import "strings"

var cardNumberSeparators = strings.NewReplacer(" ", "", "-", "")

// SetCreditCardNumber strips spaces and hyphens before storing.
func (t *Transaction) SetCreditCardNumber(number string) {
	t.Set("credit_card_number", cardNumberSeparators.Replace(number))
}

func (t *Transaction) SetCreditCardExpirationDate(date string) {
	t.Set("credit_card_expiration_date", date)
}
func (t *Transaction) SetCreditCardCvvCode(code string) { t.Set("credit_card_cvv_code", code) }

// Money setters accept strings, integers, floats or decimal.Decimal.
func (t *Transaction) SetAmount(amount any) { t.Set("amount", amount) }
func (t *Transaction) SetTaxAmount(amount any) { t.Set("tax_amount", amount) }
func (t *Transaction) SetShippingAmount(amount any) { t.Set("shipping_amount", amount) }
func (t *Transaction) SetDutyAmount(amount any) { t.Set("duty_amount", amount) }
func (t *Transaction) SetTaxExempt(exempt bool) { t.Set("tax_exempt", exempt) }

func (t *Transaction) SetCurrencyCode(code string) { t.Set("currency_code", code) }
func (t *Transaction) SetPaymentType(paymentType string) { t.Set("payment_type", paymentType) }
func (t *Transaction) SetTransactionType(txType string) { t.Set("transaction_type", txType) }
func (t *Transaction) SetTransactionID(id string) { t.Set("transaction_id", id) }

func (t *Transaction) SetInvoiceNumber(number string) { t.Set("invoice_number", number) }
func (t *Transaction) SetInvoiceDescription(desc string) { t.Set("invoice_description", desc) }
func (t *Transaction) SetSendCustomerEmail(send bool) { t.Set("send_customer_email", send) }
func (t *Transaction) SetCustomerID(id string) { t.Set("customer_id", id) }
func (t *Transaction) SetCustomerIPAddress(ip string) { t.Set("customer_ip_address", ip) }
func (t *Transaction) SetCustomerEmail(email string) { t.Set("customer_email", email) }

func (t *Transaction) SetBillingFirstName(name string) { t.Set("billing_first_name", name) }
func (t *Transaction) SetBillingLastName(name string) { t.Set("billing_last_name", name) }
func (t *Transaction) SetBillingCompany(company string) { t.Set("billing_company", company) }
func (t *Transaction) SetBillingAddress(address string) { t.Set("billing_address", address) }
func (t *Transaction) SetBillingCity(city string) { t.Set("billing_city", city) }
func (t *Transaction) SetBillingState(state string) { t.Set("billing_state", state) }
func (t *Transaction) SetBillingCountry(country string) { t.Set("billing_country", country) }
func (t *Transaction) SetBillingZipCode(zip string) { t.Set("billing_zip_code", zip) }
func (t *Transaction) SetBillingPhoneNumber(phone string) { t.Set("billing_phone_number", phone) }
func (t *Transaction) SetBillingFaxNumber(fax string) { t.Set("billing_fax_number", fax) }

func (t *Transaction) SetShippingFirstName(name string) { t.Set("shipping_first_name", name) }
func (t *Transaction) SetShippingLastName(name string) { t.Set("shipping_last_name", name) }
func (t *Transaction) SetShippingCompany(company string) { t.Set("shipping_company", company) }
func (t *Transaction) SetShippingAddress(address string) { t.Set("shipping_address", address) }
func (t *Transaction) SetShippingCity(city string) { t.Set("shipping_city", city) }
func (t *Transaction) SetShippingState(state string) { t.Set("shipping_state", state) }
func (t *Transaction) SetShippingCountry(country string) { t.Set("shipping_country", country) }
func (t *Transaction) SetShippingZipCode(zip string) { t.Set("shipping_zip_code", zip) }
