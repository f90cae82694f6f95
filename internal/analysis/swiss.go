package analysis

// Built-in recognizers for Swiss identifiers in German-language text.
// Each is a plain configuration of PatternRecognizer; context keywords
// are German/Swiss German since that is the language the matched
// documents are written in.

// NewSwissAHVRecognizer detects AHV/AVS social security numbers.
// The number always starts with 756 (the Swiss country code).
func NewSwissAHVRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("swiss_ahv", "CH_AHV",
		[]PatternSpec{
			{Name: "ahv dotted", Expr: `\b756\.\d{4}\.\d{4}\.\d{2}\b`, Score: 0.95},
			{Name: "ahv spaced", Expr: `\b756\s\d{4}\s\d{4}\s\d{2}\b`, Score: 0.9},
			{Name: "ahv compact", Expr: `\b756\d{10}\b`, Score: 0.85},
		},
		[]string{
			"ahv", "avs", "sozialversicherung", "sozialversicherungsnummer",
			"versichertennummer", "ahv-nummer", "avs-nummer",
		})
}

// NewSwissPhoneRecognizer detects Swiss phone numbers in +41 and 0XX
// national formats.
func NewSwissPhoneRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("swiss_phone", "CH_PHONE",
		[]PatternSpec{
			{Name: "phone +41 spaced", Expr: `\+41\s?\d{2}\s?\d{3}\s?\d{2}\s?\d{2}\b`, Score: 0.9},
			{Name: "phone +41 compact", Expr: `\+41\d{9}\b`, Score: 0.85},
			{Name: "phone 0 spaced", Expr: `\b0\d{2}\s?\d{3}\s?\d{2}\s?\d{2}\b`, Score: 0.7},
			{Name: "phone 0 compact", Expr: `\b0\d{9}\b`, Score: 0.6},
		},
		[]string{
			"telefon", "tel", "phone", "handy", "mobile", "natel",
			"festnetz", "anrufen", "kontakt",
		})
}

// NewSwissPostalCodeRecognizer detects four-digit Swiss postal codes
// (PLZ, range 1000-9999). The base score is deliberately low: a bare
// four-digit number is ambiguous, so the context boost carries most of
// the confidence.
func NewSwissPostalCodeRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("swiss_plz", "CH_POSTAL_CODE",
		[]PatternSpec{
			{Name: "plz", Expr: `\b[1-9]\d{3}\b`, Score: 0.3},
		},
		[]string{
			"plz", "postleitzahl", "postal", "zip", "ort", "stadt",
			"gemeinde", "wohnort", "adresse",
		})
}

// NewSwissIBANRecognizer detects Swiss IBANs (CH + 2 check digits + 17
// alphanumeric characters), spaced or compact.
func NewSwissIBANRecognizer() (*PatternRecognizer, error) {
	return NewPatternRecognizer("swiss_iban", "CH_IBAN",
		[]PatternSpec{
			{Name: "iban spaced", Expr: `\bCH\d{2}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d\b`, Score: 0.95},
			{Name: "iban alnum spaced", Expr: `\bCH\d{2}\s?[A-Z0-9]{4}\s?[A-Z0-9]{4}\s?[A-Z0-9]{4}\s?[A-Z0-9]{4}\s?[A-Z0-9]\b`, Score: 0.95},
			{Name: "iban compact", Expr: `\bCH\d{2}[A-Z0-9]{17}\b`, Score: 0.9},
		},
		[]string{
			"iban", "konto", "bankkonto", "kontonummer", "bankverbindung",
			"zahlung", "überweisung",
		})
}

// SwissRecognizers constructs the full built-in Swiss set.
func SwissRecognizers() ([]Recognizer, error) {
	builders := []func() (*PatternRecognizer, error){
		NewSwissAHVRecognizer,
		NewSwissPhoneRecognizer,
		NewSwissPostalCodeRecognizer,
		NewSwissIBANRecognizer,
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
