package analysis

// Generic (non-regional) pattern recognizers. These cover the structured
// identifiers that do not need a statistical model to find.

// NewEmailRecognizer detects email addresses.
func NewEmailRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("email", "EMAIL_ADDRESS",
		[]PatternSpec{
			{Name: "email", Expr: `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`, Score: 1.0},
		},
		[]string{"email", "e-mail", "mail", "kontakt", "adresse"})
}

// NewPhoneRecognizer detects international phone numbers in loose
// formats. Swiss formats are handled by the dedicated CH_PHONE
// recognizer with higher confidence.
func NewPhoneRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("phone", "PHONE_NUMBER",
		[]PatternSpec{
			{Name: "phone intl", Expr: `\+\d{1,3}[\d\s\-]{7,}\d`, Score: 0.6},
		},
		[]string{"telefon", "tel", "phone", "handy", "mobile", "anrufen"})
}

// NewIPAddressRecognizer detects IPv4 addresses.
func NewIPAddressRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("ip_address", "IP_ADDRESS",
		[]PatternSpec{
			{Name: "ipv4", Expr: `\b(?:\d{1,3}\.){3}\d{1,3}\b`, Score: 0.6},
		},
		[]string{"ip", "ip-adresse", "server", "host"})
}

// NewURLRecognizer detects web addresses.
func NewURLRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("url", "URL",
		[]PatternSpec{
			{Name: "url scheme", Expr: `https?://[^\s<>"]+`, Score: 0.6},
			{Name: "url www", Expr: `\bwww\.[^\s<>"]+`, Score: 0.5},
		},
		[]string{"webseite", "website", "url", "link"})
}

// NewCreditCardRecognizer detects 16-digit card numbers with optional
// separators.
func NewCreditCardRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("credit_card", "CREDIT_CARD",
		[]PatternSpec{
			{Name: "card 16", Expr: `\b(?:\d{4}[\-\s]?){3}\d{4}\b`, Score: 0.6},
		},
		[]string{"kreditkarte", "karte", "visa", "mastercard", "kartennummer"})
}

// NewIBANRecognizer detects IBANs of any country. The Swiss recognizer
// reports CH_IBAN with a higher score for Swiss accounts; cross-type
// overlap between the two is allowed and resolved downstream.
func NewIBANRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("iban", "IBAN_CODE",
		[]PatternSpec{
			{Name: "iban", Expr: `\b[A-Z]{2}\d{2}(?:\s?[A-Z0-9]{4}){2,7}\s?[A-Z0-9]{1,4}\b`, Score: 0.8},
		},
		[]string{"iban", "konto", "bankkonto", "bankverbindung", "überweisung"})
}

// GenericRecognizers constructs the built-in non-regional set.
func GenericRecognizers() ([]Recognizer, error) {
	builders := []func() (*PatternRecognizer, error){
		NewEmailRecognizer,
		NewPhoneRecognizer,
		NewIPAddressRecognizer,
		NewURLRecognizer,
		NewCreditCardRecognizer,
		NewIBANRecognizer,
	}
	out := make([]Recognizer, 0, len(builders))
	for _, build := range builders {
		rec, err := build()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
