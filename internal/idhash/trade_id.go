// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"glue-exchange/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(account_id|side|asset_amount|timestamp_ms|seq)
// The sequence number disambiguates otherwise-identical trades landing
// in the same millisecond. Returns hex-encoded hash (64 characters).
func ComputeTradeID(accountID string, side domain.Side, assetAmount, timestampMs int64, seq uint64) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		accountID,
		side,
		assetAmount,
		timestampMs,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortTradeID returns a compact base58 rendering of a hex trade_id for
// API payloads and logs. Uses the first 12 bytes of the hash.
func ShortTradeID(tradeID string) string {
	raw, err := hex.DecodeString(tradeID)
	if err != nil || len(raw) < 12 {
		return tradeID
	}
	return base58.Encode(raw[:12])
}

// ComputeRunID computes a deterministic simulation batch id.
// Formula: SHA256(iterations|days|started_at_ms), base58-encoded.
func ComputeRunID(iterations, days int, startedAtMs int64) string {
	data := fmt.Sprintf("%d|%d|%d", iterations, days, startedAtMs)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
