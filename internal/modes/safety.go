package modes

import "math"

// Safety pipeline limits. The rate limits bound tick-to-tick change so the
// device never jerks between extremes in one interval.
const (
	MinOutput = 0.0
	MaxOutput = 100.0

	MaxSpeedDeltaPerTick     = 15.0
	MaxAmplitudeDeltaPerTick = 20.0

	// AntiBoredMinSpeed keeps the device visibly alive when the floor is
	// enabled. The main tick path leaves it off: the booster already
	// guarantees non-monotone output.
	AntiBoredMinSpeed = 12.0
)

// SafetyResult is the final bounded output of one tick.
type SafetyResult struct {
	Speed     float64
	Amplitude float64
	Limited   bool // informational only, never changes control flow
}

// ApplySafety clamps raw values to [0, 100] and rate-limits their change
// from the previous tick, moving at most the per-tick max delta toward the
// raw value. Limited reports whether clamping or rate limiting altered
// anything; the optional anti-bored floor does not count as limiting.
func ApplySafety(rawSpeed, rawAmplitude, lastSpeed, lastAmplitude float64, antiBoredFloor bool) SafetyResult {
	speed := clamp(rawSpeed, MinOutput, MaxOutput)
	amplitude := clamp(rawAmplitude, MinOutput, MaxOutput)
	limited := speed != rawSpeed || amplitude != rawAmplitude

	stepped, wasStepped := rateLimit(speed, lastSpeed, MaxSpeedDeltaPerTick)
	speed = stepped
	limited = limited || wasStepped

	stepped, wasStepped = rateLimit(amplitude, lastAmplitude, MaxAmplitudeDeltaPerTick)
	amplitude = stepped
	limited = limited || wasStepped

	if antiBoredFloor && speed < AntiBoredMinSpeed {
		speed = AntiBoredMinSpeed
	}

	return SafetyResult{
		Speed:     speed,
		Amplitude: amplitude,
		Limited:   limited,
	}
}

// rateLimit moves from last toward target by at most maxDelta.
func rateLimit(target, last, maxDelta float64) (float64, bool) {
	delta := target - last
	if math.Abs(delta) <= maxDelta {
		return target, false
	}
	if delta > 0 {
		return last + maxDelta, true
	}
	return last - maxDelta, true
}
