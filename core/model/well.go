package model

// Known formations carrying a baseline adjustment. Other formation names are
// accepted and treated as neutral.
const (
	FormationCardium  = "Cardium"
	FormationMontney  = "Montney"
	FormationDuvernay = "Duvernay"
	FormationMcMurray = "McMurray"
)

// WellFeatures is the validated feature payload of a single what-if forecast.
// JSON keys match the wire contract of the external predictor.
type WellFeatures struct {
	PrimaryFormation   string  `json:"primary_formation"`
	MeasuredDepthM     float64 `json:"md_m"`
	TrueVerticalDepthM float64 `json:"tvd_m"`
	SurfaceLat         float64 `json:"surface_lat"`
	SurfaceLon         float64 `json:"surface_lon"`
	Operator           string  `json:"operator"`
	SpudMonth          int     `json:"spud_month"`
	ProppantTonnes     float64 `json:"proppant_tonnes"`
	HorizontalFlag     bool    `json:"horizontal_flag"`
	// Field is bookkeeping only and never used in any computation.
	Field string `json:"field,omitempty"`
}

// LateralLengthM approximates the horizontal section as MD minus TVD. Wells
// reporting TVD above MD get a zero lateral.
func (f WellFeatures) LateralLengthM() float64 {
	lateral := f.MeasuredDepthM - f.TrueVerticalDepthM
	if lateral < 0 {
		return 0
	}
	return lateral
}
