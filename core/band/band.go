// Package band turns a point estimate and a mean absolute error into a
// P10/P90 band, assuming approximately Gaussian estimator error.
package band

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Z is the rounded standard-normal quantile used for P10 and P90.
const Z = 1.28

// MaxVolume bounds volumes and band spreads so P50 plus the spread still
// fits an int.
const MaxVolume = 1e15

// Validate rejects MAE values no band can be built from.
func Validate(mae float64) error {
	if math.IsNaN(mae) || math.IsInf(mae, 0) {
		return fmt.Errorf("mae must be finite, got %v", mae)
	}
	if mae < 0 {
		return fmt.Errorf("mae must be >= 0, got %v", mae)
	}
	if Z*mae > MaxVolume {
		return fmt.Errorf("mae out of range: %v", mae)
	}
	return nil
}

// Build returns P10 and P90 around p50. P10 is clamped at zero since a volume
// cannot be negative, which leaves the band asymmetric for small p50.
func Build(p50 int, mae float64) (p10, p90 int) {
	spread := Z * mae
	p10 = int(math.Round(float64(p50) - spread))
	if p10 < 0 {
		p10 = 0
	}
	p90 = int(math.Round(float64(p50) + spread))
	return p10, p90
}

// NominalCoverage is the probability mass between -z and +z of the unit
// normal, i.e. the share of outcomes a P10/P90 band built with z is expected
// to contain.
func NominalCoverage(z float64) float64 {
	return distuv.UnitNormal.CDF(z) - distuv.UnitNormal.CDF(-z)
}
