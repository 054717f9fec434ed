package modes

import (
	"chartpulse/internal/domain"
	"chartpulse/internal/seedrand"
)

// Params generation ranges. Draws happen in the fixed order below, so one
// seed reproduces the same ModeParams everywhere. The second block narrows
// the trigger caps of the three reactive modes so they fire at useful rates
// while still varying per session.
const (
	trendCapMin, trendCapMax         = 0.015, 0.045
	chopCapMin, chopCapMax           = 0.45, 0.75
	accelCapMin, accelCapMax         = 0.008, 0.02
	deviationCapMin, deviationCapMax = 0.012, 0.03
	liqDropCapMin, liqDropCapMax     = 0.08, 0.18
	weightTrendMin, weightTrendMax   = 0.35, 0.65
	emaNMin, emaNMax                 = 3, 6

	chopCapTightMin, chopCapTightMax       = 0.48, 0.62
	accelCapTightMin, accelCapTightMax     = 0.009, 0.016
	liqDropCapTightMin, liqDropCapTightMax = 0.09, 0.15
)

// GenerateParams derives the per-session mode params from a seed.
// Draw order is part of the contract: reordering draws would silently
// change every session's personality.
func GenerateParams(seed uint32) domain.ModeParams {
	r := seedrand.New(seed)

	p := domain.ModeParams{
		TrendCap:     r.Range(trendCapMin, trendCapMax),
		ChopCap:      r.Range(chopCapMin, chopCapMax),
		AccelCap:     r.Range(accelCapMin, accelCapMax),
		DeviationCap: r.Range(deviationCapMin, deviationCapMax),
		LiqDropCap:   r.Range(liqDropCapMin, liqDropCapMax),
	}

	p.WeightTrend = r.Range(weightTrendMin, weightTrendMax)
	p.WeightChop = 1 - p.WeightTrend
	p.EmaN = r.Int(emaNMin, emaNMax)

	// Sensitivity re-rolls for the reactive modes.
	p.ChopCap = r.Range(chopCapTightMin, chopCapTightMax)
	p.AccelCap = r.Range(accelCapTightMin, accelCapTightMax)
	p.LiqDropCap = r.Range(liqDropCapTightMin, liqDropCapTightMax)

	return p
}
