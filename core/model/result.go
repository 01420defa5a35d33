package model

// Source identifies which path produced a PredictionResult.
type Source string

const (
	SourceUpstream         Source = "upstream"
	SourceBaseline         Source = "baseline"
	SourceBaselineFallback Source = "baseline_fallback"
)

// PredictionResult is the canonical forecast returned to callers. Volumes are
// barrels over the first twelve months.
//
// Ordering is not enforced on upstream results. Locally built bands keep
// P10 <= P50 <= P90, but P10 clamps to zero near the origin so the band is not
// always symmetric.
type PredictionResult struct {
	P50 int     `json:"p50"`
	P10 int     `json:"p10"`
	P90 int     `json:"p90"`
	MAE float64 `json:"mae"`

	Source         Source `json:"source"`
	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}
