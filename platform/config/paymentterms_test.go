package config

import "testing"

func TestPaymentTerms_Normalize(t *testing.T) {
	terms, err := LoadPaymentTerms("")
	if err != nil {
		t.Fatalf("load payment terms: %v", err)
	}

	// Code resolves to its label.
	code, label, ok := terms.Normalize("283640001")
	if !ok || code != "283640001" || label != "Công nợ 30 ngày" {
		t.Fatalf("code lookup: got (%s, %s, %v)", code, label, ok)
	}

	// Label resolves back to its code, ignoring case.
	code, _, ok = terms.Normalize("công nợ 30 ngày")
	if !ok || code != "283640001" {
		t.Fatalf("label lookup: got (%s, %v)", code, ok)
	}

	if _, _, ok := terms.Normalize("not-a-term"); ok {
		t.Fatal("unknown token must not normalize")
	}
	if _, _, ok := terms.Normalize(""); ok {
		t.Fatal("empty token must not normalize")
	}
}

func TestPaymentTerms_LabelAndCode(t *testing.T) {
	terms, err := LoadPaymentTerms("")
	if err != nil {
		t.Fatalf("load payment terms: %v", err)
	}

	if got := terms.LabelFor("0"); got != "Tiền mặt" {
		t.Fatalf("expected cash label, got %q", got)
	}
	if got := terms.CodeFor("Tiền mặt"); got != "0" {
		t.Fatalf("expected code 0, got %q", got)
	}
	if got := terms.LabelFor("999999"); got != "" {
		t.Fatalf("unknown code must map to empty label, got %q", got)
	}
}
