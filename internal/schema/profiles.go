package schema

const (
	authorizeNetEndpoint = "https://secure.authorize.net/gateway/transact.dll"
	securePayEndpoint    = "https://www.securepay.com/AuthSpayAdapter/process.aspx"

	// Approved response with a synthetic transaction id at position 6.
	securePayCannedResponse = "1,,1,,,,12345678"
)

var (
	Currencies       = []string{"USD", "EUR", "GBP", "AUD"}
	PaymentTypes     = []string{"CC", "ECHECK"}
	TransactionTypes = []string{"AUTH_CAPTURE", "AUTH_ONLY", "CAPTURE_ONLY", "CREDIT", "VOID", "PRIOR_AUTH_CAPTURE"}
)

var registry = map[string]*GatewayProfile{
	AuthorizeNet: authorizeNetProfile(),
	SecurePay:    securePayProfile(),
}

func authorizeNetProfile() *GatewayProfile {
	p := newProfile(AuthorizeNet, authorizeNetEndpoint, aimFields(false))
	p.SandboxCard = true
	return p
}

func securePayProfile() *GatewayProfile {
	p := newProfile(SecurePay, securePayEndpoint, aimFields(true))
	p.CannedResponse = securePayCannedResponse
	return p
}

func str(key, wire string, required bool, maxLen int) FieldSpec {
	return FieldSpec{Key: key, WireName: wire, Required: required, Kind: KindString, MaxLength: maxLen}
}

func money(key, wire string, required bool) FieldSpec {
	return FieldSpec{Key: key, WireName: wire, Required: required, Kind: KindMoney}
}

func enum(key, wire, def string, values []string) FieldSpec {
	return FieldSpec{Key: key, WireName: wire, Required: true, Default: def, Kind: KindString, AllowedValues: values}
}

// aimFields is the Authorize.Net AIM field set. SecurePay speaks the same
// protocol but requires the street, city and state of the billing address.
func aimFields(billingAddressRequired bool) []FieldSpec {
	return []FieldSpec{
		str("account_number", "x_login", true, 20),
		str("transaction_key", "x_tran_key", true, 16),
		str("invoice_number", "x_invoice_num", false, 20),
		str("invoice_description", "x_description", false, 255),
		money("amount", "x_amount", true),
		money("tax_amount", "x_tax", false),
		{Key: "tax_exempt", WireName: "x_tax_exempt", Kind: KindBoolean},
		money("shipping_amount", "x_freight", false),
		money("duty_amount", "x_duty", false),
		enum("currency_code", "x_currency_code", "USD", Currencies),
		enum("payment_type", "x_method", "CC", PaymentTypes),
		enum("transaction_type", "x_type", "AUTH_CAPTURE", TransactionTypes),
		str("transaction_id", "x_trans_id", false, 10),
		{Key: "send_customer_email", WireName: "x_email_customer", Default: false, Kind: KindBoolean},
		str("customer_id", "x_cust_id", false, 20),
		str("customer_ip_address", "x_customer_ip", false, 15),
		str("customer_email", "x_email", false, 255),
		str("credit_card_number", "x_card_num", true, 22),
		{Key: "credit_card_expiration_date", WireName: "x_exp_date", Required: true, Kind: KindDate},
		str("credit_card_cvv_code", "x_card_code", false, 4),
		str("billing_first_name", "x_first_name", true, 50),
		str("billing_last_name", "x_last_name", true, 50),
		str("billing_company", "x_company", false, 50),
		str("billing_address", "x_address", billingAddressRequired, 60),
		str("billing_city", "x_city", billingAddressRequired, 40),
		str("billing_state", "x_state", billingAddressRequired, 40),
		str("billing_country", "x_country", false, 60),
		str("billing_zip_code", "x_zip", true, 20),
		str("billing_phone_number", "x_phone", false, 25),
		str("billing_fax_number", "x_fax", false, 25),
		str("shipping_first_name", "x_ship_to_first_name", false, 50),
		str("shipping_last_name", "x_ship_to_last_name", false, 50),
		str("shipping_company", "x_ship_to_company", false, 50),
		str("shipping_address", "x_ship_to_address", false, 60),
		str("shipping_city", "x_ship_to_city", false, 40),
		str("shipping_state", "x_ship_to_state", false, 40),
		str("shipping_country", "x_ship_to_country", false, 60),
		str("shipping_zip_code", "x_ship_to_zip", false, 20),
	}
}

// FollowUpRules require follow-up transactions (CREDIT, VOID,
// PRIOR_AUTH_CAPTURE) to reference the original transaction id. Validators
// only apply them when configured to.
func FollowUpRules() []Rule {
	return []Rule{{
		ID:         "follow_up_needs_transaction_id",
		Expression: "(transaction_type == 'CREDIT' || transaction_type == 'VOID' || transaction_type == 'PRIOR_AUTH_CAPTURE') && !has_transaction_id",
		Field:      "transaction_id",
		Reason:     "required for this transaction type",
	}}
}
