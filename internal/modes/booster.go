package modes

// BoosterThreshold is the intensity at which the booster engages.
const BoosterThreshold = 0.7

// BoosterPhase is one step of the fixed overlay pattern.
type BoosterPhase struct {
	SpeedMul  float64 // multiplier applied to speed
	AmpOffset float64 // offset added to amplitude
}

// boosterPattern is the fixed lookup table indexed by step mod length.
// It rises to a crest and falls back so sustained high intensity reads as
// a wave instead of a monotone plateau. Never randomized: the same
// starting step always reproduces the same sequence.
var boosterPattern = []BoosterPhase{
	{SpeedMul: 1.05, AmpOffset: 4},
	{SpeedMul: 1.12, AmpOffset: 8},
	{SpeedMul: 1.20, AmpOffset: 12},
	{SpeedMul: 1.28, AmpOffset: 16},
	{SpeedMul: 1.20, AmpOffset: 12},
	{SpeedMul: 1.12, AmpOffset: 8},
	{SpeedMul: 1.05, AmpOffset: 4},
	{SpeedMul: 1.00, AmpOffset: 0},
}

// BoosterResult is the overlay outcome for one tick.
type BoosterResult struct {
	Speed     float64
	Amplitude float64
	Step      int  // persisted back onto the session by the caller
	Applied   bool // false while dormant
}

// ApplyBooster overlays the oscillation pattern when intensity crosses the
// activation threshold. Dormant calls return the inputs untouched and keep
// the step, so the pattern resumes where it left off on the next
// activation. Active calls advance the step by exactly one; the step
// counter itself is monotonic and only the pattern lookup wraps.
func ApplyBooster(intensity, speed, amplitude float64, step int) BoosterResult {
	if intensity < BoosterThreshold {
		return BoosterResult{
			Speed:     speed,
			Amplitude: amplitude,
			Step:      step,
			Applied:   false,
		}
	}

	newStep := step + 1
	phase := boosterPattern[newStep%len(boosterPattern)]

	return BoosterResult{
		Speed:     speed * phase.SpeedMul,
		Amplitude: amplitude + phase.AmpOffset,
		Step:      newStep,
		Applied:   true,
	}
}
