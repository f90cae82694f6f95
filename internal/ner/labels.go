package ner

// Label-remap tables translating raw model vocabulary into the canonical
// entity taxonomy. Labels absent from the active table are dropped: an
// unmapped label carries no anonymization instruction, so surfacing it
// would only confuse downstream operators.

// SpacyLabelMap covers the coarse label set of spaCy-style NER exports.
var SpacyLabelMap = map[string]string{
	"PER":    "PERSON",
	"PERSON": "PERSON",
	"LOC":    "LOCATION",
	"GPE":    "LOCATION",
	"ORG":    "ORGANIZATION",
	"DATE":   "DATE_TIME",
	"TIME":   "DATE_TIME",
}

// TransformersLabelMap covers the eu-pii-safeguard token classifier.
var TransformersLabelMap = map[string]string{
	"ACCOUNTNUMBER":       "ACCOUNT_NUMBER",
	"AMOUNT":              "AMOUNT",
	"BIC":                 "BIC",
	"BITCOINADDRESS":      "CRYPTO",
	"BUILDINGNUMBER":      "BUILDING_NUMBER",
	"CITY":                "LOCATION",
	"COMPANYNAME":         "ORGANIZATION",
	"COUNTY":              "LOCATION",
	"CREDITCARDCVV":       "CREDIT_CARD_CVV",
	"CREDITCARDISSUER":    "CREDIT_CARD_ISSUER",
	"CREDITCARDNUMBER":    "CREDIT_CARD",
	"CURRENCY":            "CURRENCY",
	"CURRENCYCODE":        "CURRENCY_CODE",
	"CURRENCYNAME":        "CURRENCY_NAME",
	"CURRENCYSYMBOL":      "CURRENCY_SYMBOL",
	"DATE":                "DATE_TIME",
	"DOB":                 "DATE_TIME",
	"EMAIL":               "EMAIL_ADDRESS",
	"ETHEREUMADDRESS":     "CRYPTO",
	"EYECOLOR":            "PHYSICAL_ATTRIBUTE",
	"FIRSTNAME":           "PERSON",
	"GENDER":              "GENDER",
	"HEIGHT":              "PHYSICAL_ATTRIBUTE",
	"IBAN":                "IBAN_CODE",
	"IP":                  "IP_ADDRESS",
	"IPV4":                "IP_ADDRESS",
	"IPV6":                "IP_ADDRESS",
	"JOBAREA":             "JOB_AREA",
	"JOBTITLE":            "JOB_TITLE",
	"JOBTYPE":             "JOB_TYPE",
	"LASTNAME":            "PERSON",
	"LITECOINADDRESS":     "CRYPTO",
	"MAC":                 "MAC_ADDRESS",
	"MASKEDNUMBER":        "MASKED_NUMBER",
	"MIDDLENAME":          "PERSON",
	"NAME":                "PERSON",
	"NEARBYGPSCOORDINATE": "LOCATION",
	"ORDINALDIRECTION":    "LOCATION",
	"PASSWORD":            "PASSWORD",
	"PHONEIMEI":           "PHONE_IMEI",
	"PHONENUMBER":         "PHONE_NUMBER",
	"PIN":                 "PIN",
	"PREFIX":              "TITLE",
	"SECONDARYADDRESS":    "LOCATION",
	"SEX":                 "GENDER",
	"SSN":                 "US_SSN",
	"STATE":               "LOCATION",
	"STREET":              "LOCATION",
	"STREETADDRESS":       "LOCATION",
	"SUFFIX":              "TITLE",
	"TIME":                "DATE_TIME",
	"URL":                 "URL",
	"USERAGENT":           "USER_AGENT",
	"USERNAME":            "USERNAME",
	"VEHICLEVIN":          "VEHICLE_ID",
	"VEHICLEVRM":          "VEHICLE_ID",
	"ZIPCODE":             "POSTAL_CODE",
}
