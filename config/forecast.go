package config

import (
	"fmt"

	"github.com/kilianp07/wellcast/core/band"
	"github.com/kilianp07/wellcast/core/baseline"
)

// DefaultMAE is the holdout mean absolute error of the reference model, in
// barrels.
const DefaultMAE = 9850

// BandConfig sets the width of locally built P10/P90 bands. An explicit
// mae of 0 collapses every band onto P50.
type BandConfig struct {
	MAE float64 `json:"mae"`
}

// DefaultBandConfig returns the reference model's MAE.
func DefaultBandConfig() BandConfig {
	return BandConfig{MAE: DefaultMAE}
}

func (c BandConfig) Validate() error {
	if err := band.Validate(c.MAE); err != nil {
		return fmt.Errorf("band.%w", err)
	}
	return nil
}

// BaselineConfig holds the ordered adjustment tables of the baseline
// estimator.
type BaselineConfig struct {
	Operators  []baseline.OperatorAdjustment  `json:"operators"`
	Formations []baseline.FormationAdjustment `json:"formations"`
}

// SetDefaults fills tables that were not configured. An explicitly empty
// table is kept.
func (c *BaselineConfig) SetDefaults() {
	if c.Operators == nil {
		c.Operators = baseline.DefaultOperatorAdjustments()
	}
	if c.Formations == nil {
		c.Formations = baseline.DefaultFormationAdjustments()
	}
}

func (c BaselineConfig) Validate() error {
	for i, op := range c.Operators {
		if op.Match == "" || op.Factor <= 0 {
			return fmt.Errorf("baseline.operators[%d]: match and a positive factor are required", i)
		}
	}
	for i, f := range c.Formations {
		if f.Formation == "" || f.Factor <= 0 {
			return fmt.Errorf("baseline.formations[%d]: formation and a positive factor are required", i)
		}
	}
	return nil
}

// Estimator builds the baseline estimator from the tables.
func (c BaselineConfig) Estimator() *baseline.Estimator {
	return baseline.New(c.Operators, c.Formations)
}

// FallbackConfig controls answering with the baseline when the predictor is
// unavailable. Fallback answers are flagged in the response.
type FallbackConfig struct {
	Enabled bool `json:"enabled"`
}
