package seedrand

// Linear congruential generator constants (glibc variant).
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1 << 31
)

// Rand is a deterministic linear congruential generator. The same seed and
// call sequence reproduce the same outputs on every platform, which is what
// keeps per-session mode params stable. Not safe for concurrent use.
type Rand struct {
	seed uint32
}

// New creates a generator from a derived seed. Seeds at or above the modulus
// are reduced on the first step.
func New(seed uint32) *Rand {
	return &Rand{seed: seed}
}

// Next advances the generator and returns a value in [0, 1].
// Formula: seed = (seed*1103515245 + 12345) mod 2^31; out = seed / (2^31 - 1).
func (r *Rand) Next() float64 {
	r.seed = uint32((uint64(r.seed)*lcgMultiplier + lcgIncrement) % lcgModulus)
	return float64(r.seed) / float64(lcgModulus-1)
}

// Range returns a value in [min, max] scaled from Next.
func (r *Rand) Range(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// Int returns an integer in [min, max] inclusive.
func (r *Rand) Int(min, max int) int {
	v := min + int(r.Next()*float64(max-min+1))
	if v > max {
		v = max
	}
	return v
}
