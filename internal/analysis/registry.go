package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// EntityInfo describes one supported entity type.
type EntityInfo struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	IsRegionSpecific bool   `json:"is_region_specific"`
}

// Registry holds the active recognizer set.
type Registry struct {
	recognizers []Recognizer
}

// NewRegistry creates a registry over the given recognizers.
func NewRegistry(recognizers ...Recognizer) *Registry {
	return &Registry{recognizers: recognizers}
}

// Add registers an additional recognizer.
func (r *Registry) Add(rec Recognizer) {
	r.recognizers = append(r.recognizers, rec)
}

// Recognizers returns the registered recognizers in registration order.
func (r *Registry) Recognizers() []Recognizer {
	return r.recognizers
}

// SupportedEntities lists every entity type declared by a registered
// recognizer, sorted by type name. The list is derived, never hardcoded:
// registering a new recognizer makes its types appear here.
func (r *Registry) SupportedEntities() []EntityInfo {
	seen := make(map[string]struct{})
	out := make([]EntityInfo, 0)
	for _, rec := range r.recognizers {
		for _, typ := range rec.Entities() {
			if _, ok := seen[typ]; ok {
				continue
			}
			seen[typ] = struct{}{}
			out = append(out, EntityInfo{
				Type:             typ,
				Description:      describeEntity(typ),
				IsRegionSpecific: strings.HasPrefix(typ, "CH_"),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

var entityDescriptions = map[string]string{
	"PERSON":         "Person names",
	"EMAIL_ADDRESS":  "Email addresses",
	"PHONE_NUMBER":   "Phone numbers",
	"LOCATION":       "Locations and addresses",
	"DATE_TIME":      "Dates and times",
	"IBAN_CODE":      "IBAN bank account numbers",
	"CREDIT_CARD":    "Credit card numbers",
	"IP_ADDRESS":     "IP addresses",
	"URL":            "URLs and web addresses",
	"ORGANIZATION":   "Company and organization names",
	"CH_AHV":         "Swiss AHV/AVS social security numbers",
	"CH_PHONE":       "Swiss phone numbers (+41, 0XX)",
	"CH_POSTAL_CODE": "Swiss postal codes (PLZ)",
	"CH_IBAN":        "Swiss IBAN numbers",
}

func describeEntity(typ string) string {
	if d, ok := entityDescriptions[typ]; ok {
		return d
	}
	return fmt.Sprintf("%s entities", typ)
}
