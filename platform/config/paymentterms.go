package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed payment_terms.yaml
var defaultPaymentTermsYAML []byte

// PaymentTerm is one entry of the fixed code↔label lookup table.
type PaymentTerm struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// PaymentTerms is the fixed payment-term lookup table. The ERP stores terms
// as option-set codes on order headers while promotions reference them by
// code or display label, so both directions are indexed.
type PaymentTerms struct {
	Terms []PaymentTerm `yaml:"terms"`

	byCode  map[string]string
	byLabel map[string]string
}

// LoadPaymentTerms parses the payment-term table from the given file, falling
// back to the embedded default table when path is empty.
func LoadPaymentTerms(path string) (*PaymentTerms, error) {
	raw := defaultPaymentTermsYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = data
	}

	var terms PaymentTerms
	if err := yaml.Unmarshal(raw, &terms); err != nil {
		return nil, fmt.Errorf("parse payment terms: %w", err)
	}
	if len(terms.Terms) == 0 {
		return nil, fmt.Errorf("payment terms table is empty")
	}

	terms.byCode = make(map[string]string, len(terms.Terms))
	terms.byLabel = make(map[string]string, len(terms.Terms))
	for _, t := range terms.Terms {
		terms.byCode[strings.ToLower(t.Code)] = t.Label
		terms.byLabel[strings.ToLower(t.Label)] = t.Code
	}
	return &terms, nil
}

// LabelFor returns the display label for a term code, or "" when unknown.
func (p *PaymentTerms) LabelFor(code string) string {
	return p.byCode[strings.ToLower(strings.TrimSpace(code))]
}

// CodeFor returns the option-set code for a display label, or "" when unknown.
func (p *PaymentTerms) CodeFor(label string) string {
	return p.byLabel[strings.ToLower(strings.TrimSpace(label))]
}

// Normalize resolves a raw token (code or label, any case) to its canonical
// (code, label) pair. ok is false when the token is not in the table.
func (p *PaymentTerms) Normalize(token string) (code, label string, ok bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", false
	}
	if l, found := p.byCode[strings.ToLower(trimmed)]; found {
		return trimmed, l, true
	}
	if c, found := p.byLabel[strings.ToLower(trimmed)]; found {
		return c, trimmed, true
	}
	return "", "", false
}
