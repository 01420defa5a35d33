// Package baseline implements the deterministic reference estimator used when
// the remote model is not consulted. It only looks at lateral length,
// proppant, operator and formation; location, spud month, horizontal flag and
// field are accepted by the schema but deliberately ignored here.
package baseline

import (
	"math"
	"strings"

	"github.com/kilianp07/wellcast/core/model"
)

const (
	// BaseVolumeBbl is the intercept of the baseline, in barrels.
	BaseVolumeBbl = 90000.0
	// LateralCoefficient is barrels per metre of lateral.
	LateralCoefficient = 12.0
	// ProppantCoefficient is barrels per tonne of proppant.
	ProppantCoefficient = 45.0
)

// OperatorAdjustment scales the base volume for operators whose name contains
// Match, compared case-insensitively.
type OperatorAdjustment struct {
	Match  string  `json:"match"`
	Factor float64 `json:"factor"`
}

// FormationAdjustment scales the base volume for an exact formation name.
type FormationAdjustment struct {
	Formation string  `json:"formation"`
	Factor    float64 `json:"factor"`
}

// DefaultOperatorAdjustments is evaluated in order; the first match wins.
func DefaultOperatorAdjustments() []OperatorAdjustment {
	return []OperatorAdjustment{
		{Match: "CNRL", Factor: 0.95},
		{Match: "Suncor", Factor: 1.05},
	}
}

// DefaultFormationAdjustments returns the formation multipliers.
func DefaultFormationAdjustments() []FormationAdjustment {
	return []FormationAdjustment{
		{Formation: model.FormationCardium, Factor: 1.00},
		{Formation: model.FormationMontney, Factor: 1.08},
		{Formation: model.FormationDuvernay, Factor: 1.12},
		{Formation: model.FormationMcMurray, Factor: 1.15},
	}
}

// Estimator computes P50 from well features. The zero value has no
// adjustments; use New or Default.
type Estimator struct {
	operators  []OperatorAdjustment
	formations []FormationAdjustment
}

// New returns an Estimator using the given tables. The slices are copied.
func New(operators []OperatorAdjustment, formations []FormationAdjustment) *Estimator {
	return &Estimator{
		operators:  append([]OperatorAdjustment(nil), operators...),
		formations: append([]FormationAdjustment(nil), formations...),
	}
}

// Default returns an Estimator with the built-in tables.
func Default() *Estimator {
	return New(DefaultOperatorAdjustments(), DefaultFormationAdjustments())
}

// Base returns the unadjusted volume in barrels.
func Base(f model.WellFeatures) float64 {
	return BaseVolumeBbl + f.LateralLengthM()*LateralCoefficient + f.ProppantTonnes*ProppantCoefficient
}

// OperatorFactor returns the multiplier of the first table entry whose match
// string is contained in operator, or 1.
func (e *Estimator) OperatorFactor(operator string) float64 {
	op := strings.ToLower(operator)
	for _, adj := range e.operators {
		if adj.Match != "" && strings.Contains(op, strings.ToLower(adj.Match)) {
			return adj.Factor
		}
	}
	return 1
}

// FormationFactor returns the multiplier for formation, or 1 when unknown.
func (e *Estimator) FormationFactor(formation string) float64 {
	for _, adj := range e.formations {
		if adj.Formation == formation {
			return adj.Factor
		}
	}
	return 1
}

// Estimate returns P50 in barrels, rounded half away from zero.
func (e *Estimator) Estimate(f model.WellFeatures) int {
	v := Base(f) * e.OperatorFactor(f.Operator) * e.FormationFactor(f.PrimaryFormation)
	return int(math.Round(v))
}

// Operators returns a copy of the operator table.
func (e *Estimator) Operators() []OperatorAdjustment {
	return append([]OperatorAdjustment(nil), e.operators...)
}

// Formations returns a copy of the formation table.
func (e *Estimator) Formations() []FormationAdjustment {
	return append([]FormationAdjustment(nil), e.formations...)
}
