package scene

import "math"

// Ease maps linear progress in [0,1] onto eased progress.
type Ease func(float64) float64

// powerOut decelerates with degree n (power2 is cubic).
func powerOut(n float64) Ease {
	return func(t float64) float64 { return 1 - math.Pow(1-t, n) }
}

func powerInOut(n float64) Ease {
	return func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2, n-1) * math.Pow(t, n)
		}
		return 1 - math.Pow(-2*t+2, n)/2
	}
}

func sineInOut(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

var (
	easePower2Out   = powerOut(3)
	easePower2InOut = powerInOut(3)
	easePower3InOut = powerInOut(4)
)
