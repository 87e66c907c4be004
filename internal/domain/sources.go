package domain

import (
	"fmt"
	"strings"
)

// SourceType separates public registries from licensed databases.
type SourceType string

const (
	SourceOfficial   SourceType = "official"
	SourceCommercial SourceType = "commercial"
)

// Icon returns the badge shown next to a source of this type.
func (t SourceType) Icon() string {
	if t == SourceCommercial {
		return "💼"
	}
	return "🏛️"
}

// DataSource is an external legal data provider the backend can query.
type DataSource struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        SourceType `json:"type"`
	BaseURL     string     `json:"base_url"`
	Description string     `json:"description"`
	// Active is false for sources that need a licence or API key.
	Active bool `json:"active"`
}

// LegalDocument is a key legal act published in ISAP.
type LegalDocument struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// CategoryLabel returns the heading legal acts of category are grouped
// under.
func CategoryLabel(category string) string {
	switch category {
	case "ksef":
		return "📄 KSeF"
	case "vat":
		return "💰 VAT"
	case "b2b":
		return "💼 B2B / Prawo pracy"
	case "zus":
		return "🏥 ZUS"
	}
	return category
}

// VerifyKind names the registry an identifier is checked against.
type VerifyKind string

const (
	VerifyNIP   VerifyKind = "nip"    // CEIDG
	VerifyKRS   VerifyKind = "krs"    // KRS
	VerifyVATEU VerifyKind = "vat_eu" // VIES, e.g. PL1234567890
)

// VerifyKinds lists the kinds in the order they are offered.
func VerifyKinds() []VerifyKind {
	return []VerifyKind{VerifyNIP, VerifyKRS, VerifyVATEU}
}

// Label is the user-facing name of the kind.
func (k VerifyKind) Label() string {
	switch k {
	case VerifyNIP:
		return "NIP (CEIDG)"
	case VerifyKRS:
		return "KRS"
	case VerifyVATEU:
		return "VAT UE (VIES)"
	}
	return string(k)
}

// ParseVerifyKind accepts the wire names in any case.
func ParseVerifyKind(s string) (VerifyKind, error) {
	k := VerifyKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range VerifyKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("nieobsługiwany typ weryfikacji %q", s)
}

// Verification is the result of POST /verify.
type Verification struct {
	Valid      bool           `json:"valid"`
	Identifier string         `json:"identifier"`
	Type       VerifyKind     `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Name returns the registered name, when the registry sent one.
func (v Verification) Name() string { return v.field("name") }

// Address returns the registered address, when the registry sent one.
func (v Verification) Address() string { return v.field("address") }

func (v Verification) field(key string) string {
	s, _ := v.Data[key].(string)
	return s
}

// VATCheck is the result of the quick VIES lookup.
type VATCheck struct {
	Valid       bool   `json:"valid"`
	CountryCode string `json:"country_code"`
	VATNumber   string `json:"vat_number"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	Error       string `json:"error,omitempty"`
}
