package seedrand

import "strconv"

// DeriveSeed computes the deterministic RNG seed for a session.
// Formula: abs(hash32(sessionStateID + ":" + tokenMint + ":" + floor(startTimeMs/60000)))
// where hash32 is the rolling polynomial h = h*31 + codePoint in wrapping
// 32-bit signed arithmetic. The minute bucket makes rapid re-creation land
// on the same seed, so params stay stable across accidental restarts.
func DeriveSeed(sessionStateID, tokenMint string, startTimeMs int64) uint32 {
	minuteBucket := startTimeMs / 60000
	key := sessionStateID + ":" + tokenMint + ":" + strconv.FormatInt(minuteBucket, 10)

	var h int32
	for _, cp := range key {
		h = h*31 + cp
	}

	// abs in 64-bit so MinInt32 does not overflow
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint32(v)
}
