package bridge

import "math"

// HomeKit expresses color temperature in mired, the bulbs in Kelvin.
// The bounds below are what Yeelight white hardware actually renders,
// about 2703K to 6494K; values outside are clamped before conversion.
const (
	minMired = 154
	maxMired = 370
)

func miredToKelvin(mired int) int {
	return int(math.Round(1_000_000 / float64(mired)))
}

func kelvinToMired(kelvin int) int {
	return int(math.Round(1_000_000 / float64(kelvin)))
}

func clampMired(mired int) int {
	if mired < minMired {
		return minMired
	}
	if mired > maxMired {
		return maxMired
	}

	return mired
}
