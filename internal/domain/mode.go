package domain

// Mode represents a behavioral mode selected from chart metrics.
type Mode string

const (
	ModeTrendRider      Mode = "TREND_RIDER"
	ModeChopMonster     Mode = "CHOP_MONSTER"
	ModeMomentumBurst   Mode = "MOMENTUM_BURST"
	ModeDeviationSurfer Mode = "DEVIATION_SURFER"
	ModeLiquidityPanic  Mode = "LIQUIDITY_PANIC"
)

// ModePriority lists all modes from most to least urgent. Selection walks
// this slice in order and takes the first mode whose trigger fires;
// ModeTrendRider never triggers and acts as the fallback.
var ModePriority = []Mode{
	ModeLiquidityPanic,
	ModeMomentumBurst,
	ModeChopMonster,
	ModeDeviationSurfer,
	ModeTrendRider,
}

// String returns the string representation of Mode.
func (m Mode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeTrendRider, ModeChopMonster, ModeMomentumBurst, ModeDeviationSurfer, ModeLiquidityPanic:
		return true
	}
	return false
}
