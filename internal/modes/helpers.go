package modes

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp01 bounds v to [0, 1].
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// Band converts an amplitude into the [minY, maxY] motion band, centered
// on 50 with half the amplitude on each side, both bounds in [0, 100].
func Band(amplitude float64) (minY, maxY float64) {
	half := clamp(amplitude, 0, 100) / 2
	return clamp(50-half, 0, 100), clamp(50+half, 0, 100)
}
