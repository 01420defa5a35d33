package prediction

// Mode selects how forecasts are produced.
type Mode string

const (
	// ModeRemote forwards features to the external predictor.
	ModeRemote Mode = "remote"
	// ModeBaseline computes forecasts locally with the baseline estimator.
	ModeBaseline Mode = "baseline"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeRemote || m == ModeBaseline }
