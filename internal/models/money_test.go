package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyRoundsToTwoDecimals(t *testing.T) {
	amount := NewMoneyFromFloat(29.899)
	if got := amount.String(); got != "29.90" {
		t.Fatalf("want 29.90 got %s", got)
	}

	data, err := json.Marshal(amount)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"29.90"` {
		t.Fatalf("json want \"29.90\" got %s", data)
	}
}

func TestMoneyUnmarshalAcceptsStringAndNumber(t *testing.T) {
	var fromString Money
	if err := json.Unmarshal([]byte(`"19.9"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.String() != "19.90" {
		t.Fatalf("string input want 19.90 got %s", fromString.String())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`19.9`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "19.90" {
		t.Fatalf("number input want 19.90 got %s", fromNumber.String())
	}
}
