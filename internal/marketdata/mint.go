package marketdata

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// MintInfo describes the shape of a token mint string. The engine passes
// mints through opaquely; this classification only steers request building
// and logging in the aggregator client.
type MintInfo struct {
	Canonical  string // canonical base58 re-encoding, equals input when well formed
	WellFormed bool   // decodes to exactly 32 bytes
	OffCurve   bool   // not a valid ed25519 point, typical for derived mints
}

// InspectMint classifies a mint string by base58 shape and curve membership.
func InspectMint(mint string) MintInfo {
	raw, err := base58.Decode(mint)
	if err != nil || len(raw) != 32 {
		return MintInfo{Canonical: mint}
	}

	return MintInfo{
		Canonical:  base58.Encode(raw),
		WellFormed: true,
		OffCurve:   !isOnCurve(raw),
	}
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
