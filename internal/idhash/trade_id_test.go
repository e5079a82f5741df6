package idhash

import (
	"testing"

	"glue-exchange/internal/domain"
)

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000000, 1)
	b := ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000000, 1)

	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(a))
	}
}

func TestComputeTradeID_DistinguishesInputs(t *testing.T) {
	base := ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000000, 1)

	variants := []string{
		ComputeTradeID("acct-2", domain.SideBuy, 10, 1700000000000, 1),
		ComputeTradeID("acct-1", domain.SideSell, 10, 1700000000000, 1),
		ComputeTradeID("acct-1", domain.SideBuy, 11, 1700000000000, 1),
		ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000001, 1),
		// Identical trade in the same millisecond, next sequence number.
		ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000000, 2),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}

func TestShortTradeID(t *testing.T) {
	id := ComputeTradeID("acct-1", domain.SideBuy, 10, 1700000000000, 1)
	short := ShortTradeID(id)

	if short == id {
		t.Error("short id should differ from full hex id")
	}
	if len(short) == 0 || len(short) >= len(id) {
		t.Errorf("unexpected short id length %d", len(short))
	}

	// Malformed input falls back to identity.
	if got := ShortTradeID("not-hex"); got != "not-hex" {
		t.Errorf("expected passthrough for malformed id, got %s", got)
	}
}
