package modes

import (
	"math"

	"chartpulse/internal/domain"
)

// Output is one mode decision before booster and safety. Speed and
// Amplitude are intermediate values and may land outside [0, 100]; the
// safety pipeline owns the final clamp.
type Output struct {
	Mode      domain.Mode
	Intensity float64 // in [0, 1]
	Speed     float64
	Amplitude float64
	Style     string // behavioral character, for logging only
}

// ModeConfig holds the tuning constants of one mode. All mode tuning lives
// in the modeConfigs table so priority and thresholds stay auditable in one
// place.
type ModeConfig struct {
	BaseSpeed     float64 // speed at zero intensity
	SpeedGain     float64 // speed added at full intensity
	BaseAmplitude float64 // amplitude at zero intensity
	AmplitudeGain float64 // amplitude added at full intensity
	Style         string  // label used in logs and the command journal
}

var modeConfigs = map[domain.Mode]ModeConfig{
	domain.ModeTrendRider: {
		BaseSpeed:     35,
		SpeedGain:     30,
		BaseAmplitude: 20,
		AmplitudeGain: 25,
		Style:         "ride",
	},
	domain.ModeChopMonster: {
		BaseSpeed:     55,
		SpeedGain:     30,
		BaseAmplitude: 45,
		AmplitudeGain: 30,
		Style:         "jitter",
	},
	domain.ModeMomentumBurst: {
		BaseSpeed:     60,
		SpeedGain:     35,
		BaseAmplitude: 35,
		AmplitudeGain: 30,
		Style:         "burst",
	},
	domain.ModeDeviationSurfer: {
		BaseSpeed:     45,
		SpeedGain:     25,
		BaseAmplitude: 40,
		AmplitudeGain: 25,
		Style:         "surf",
	},
	domain.ModeLiquidityPanic: {
		BaseSpeed:     70,
		SpeedGain:     30,
		BaseAmplitude: 50,
		AmplitudeGain: 30,
		Style:         "panic",
	},
}

// ConfigFor returns the tuning constants for a mode, falling back to the
// default mode for unknown values.
func ConfigFor(mode domain.Mode) ModeConfig {
	if cfg, ok := modeConfigs[mode]; ok {
		return cfg
	}
	return modeConfigs[domain.ModeTrendRider]
}

// SelectMode picks the behavioral mode for the current metrics. Pure
// function, re-evaluated fresh every tick with no hysteresis. Candidates
// are checked in domain.ModePriority order and the first triggered one
// wins; ModeTrendRider is the fallback.
func SelectMode(m domain.Metrics, p domain.ModeParams) domain.Mode {
	for _, mode := range domain.ModePriority {
		if triggered(mode, m, p) {
			return mode
		}
	}
	return domain.ModeTrendRider
}

// triggered evaluates a single mode's trigger condition.
func triggered(mode domain.Mode, m domain.Metrics, p domain.ModeParams) bool {
	switch mode {
	case domain.ModeLiquidityPanic:
		return m.LiqDrop > p.LiqDropCap
	case domain.ModeMomentumBurst:
		return m.Accel > p.AccelCap
	case domain.ModeChopMonster:
		return m.Chop > p.ChopCap
	case domain.ModeDeviationSurfer:
		return math.Abs(m.Deviation) > p.DeviationCap
	case domain.ModeTrendRider:
		return true
	}
	return false
}

// ComputeOutput derives the raw speed/amplitude/intensity for the selected
// mode. For the reactive modes intensity measures how far the triggering
// metric overshot its cap (0 at the trip point, 1 at twice the cap). The
// default mode blends trend- and calm-driven contributions with the
// session's weight pair.
func ComputeOutput(mode domain.Mode, m domain.Metrics, p domain.ModeParams) Output {
	cfg := ConfigFor(mode)

	var intensity float64
	switch mode {
	case domain.ModeLiquidityPanic:
		intensity = overshoot(m.LiqDrop, p.LiqDropCap)
	case domain.ModeMomentumBurst:
		intensity = overshoot(m.Accel, p.AccelCap)
	case domain.ModeChopMonster:
		intensity = overshoot(m.Chop, p.ChopCap)
	case domain.ModeDeviationSurfer:
		intensity = overshoot(math.Abs(m.Deviation), p.DeviationCap)
	default:
		trendPart := clamp01(math.Abs(m.Trend) / p.TrendCap)
		calmPart := clamp01(1 - m.Chop)
		intensity = clamp01(p.WeightTrend*trendPart + p.WeightChop*calmPart)
	}

	return Output{
		Mode:      mode,
		Intensity: intensity,
		Speed:     cfg.BaseSpeed + cfg.SpeedGain*intensity,
		Amplitude: cfg.BaseAmplitude + cfg.AmplitudeGain*intensity,
		Style:     cfg.Style,
	}
}

// overshoot maps a triggering metric into [0, 1]: zero at or below its
// cap, one once the metric reaches twice the cap.
func overshoot(metric, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return clamp01((metric - threshold) / threshold)
}
