package predict

import (
	"net/http"

	"github.com/kilianp07/wellcast/core/band"
	"github.com/kilianp07/wellcast/core/baseline"
	"github.com/kilianp07/wellcast/core/prediction"
)

// ModelInfo describes the active forecasting configuration.
type ModelInfo struct {
	Mode            prediction.Mode                `json:"mode"`
	Endpoint        string                         `json:"endpoint,omitempty"`
	MAE             float64                        `json:"mae"`
	Z               float64                        `json:"z"`
	NominalCoverage float64                        `json:"nominal_coverage"`
	BaseVolumeBbl   float64                        `json:"base_volume_bbl"`
	LateralCoeff    float64                        `json:"lateral_coefficient"`
	ProppantCoeff   float64                        `json:"proppant_coefficient"`
	Operators       []baseline.OperatorAdjustment  `json:"operator_adjustments"`
	Formations      []baseline.FormationAdjustment `json:"formation_adjustments"`
}

// DescribeModel builds the ModelInfo for a service. endpoint is the
// predictor URL in remote mode.
func DescribeModel(svc *prediction.Service, endpoint string) ModelInfo {
	info := ModelInfo{
		Mode:            svc.Mode(),
		MAE:             svc.MAE(),
		Z:               band.Z,
		NominalCoverage: band.NominalCoverage(band.Z),
		BaseVolumeBbl:   baseline.BaseVolumeBbl,
		LateralCoeff:    baseline.LateralCoefficient,
		ProppantCoeff:   baseline.ProppantCoefficient,
		Operators:       svc.Estimator().Operators(),
		Formations:      svc.Estimator().Formations(),
	}
	if svc.Mode() == prediction.ModeRemote {
		info.Endpoint = endpoint
	}
	return info
}

// NewModelHandler serves GET /api/v1/model.
func NewModelHandler(info ModelInfo) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
}
