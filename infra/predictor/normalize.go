package predictor

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kilianp07/wellcast/core/band"
	"github.com/kilianp07/wellcast/core/model"
)

// Normalize turns a predictor answer into a PredictionResult. p50 is
// required; p10, p90 and mae are optional. Missing band edges are rebuilt
// from p50 and the MAE, and a missing mae falls back to defaultMAE. Volumes
// are rounded half away from zero.
func Normalize(body map[string]any, defaultMAE float64) (model.PredictionResult, error) {
	p50, ok, err := volume(body, "p50")
	if err != nil {
		return model.PredictionResult{}, err
	}
	if !ok {
		return model.PredictionResult{}, &model.MalformedUpstreamResponseError{Reason: "p50 is required"}
	}

	mae := defaultMAE
	if v, present, err := number(body, "mae"); err != nil {
		return model.PredictionResult{}, err
	} else if present {
		mae = v
	}
	if err := band.Validate(mae); err != nil {
		return model.PredictionResult{}, &model.MalformedUpstreamResponseError{Reason: "mae", Err: err}
	}

	p10, hasP10, err := volume(body, "p10")
	if err != nil {
		return model.PredictionResult{}, err
	}
	p90, hasP90, err := volume(body, "p90")
	if err != nil {
		return model.PredictionResult{}, err
	}
	if !hasP10 || !hasP90 {
		lo, hi := band.Build(p50, mae)
		if !hasP10 {
			p10 = lo
		}
		if !hasP90 {
			p90 = hi
		}
	}
	return model.PredictionResult{
		P50:    p50,
		P10:    p10,
		P90:    p90,
		MAE:    mae,
		Source: model.SourceUpstream,
	}, nil
}

// number reads a finite, non-negative number. A missing or null key is
// reported as absent.
func number(body map[string]any, key string) (float64, bool, error) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var v float64
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, true, &model.MalformedUpstreamResponseError{Reason: key + " is not a number", Err: err}
		}
		v = f
	case float64:
		v = n
	case int:
		v = float64(n)
	default:
		return 0, true, &model.MalformedUpstreamResponseError{Reason: fmt.Sprintf("%s must be a number, got %T", key, raw)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, &model.MalformedUpstreamResponseError{Reason: key + " must be finite"}
	}
	if v < 0 {
		return 0, true, &model.MalformedUpstreamResponseError{Reason: fmt.Sprintf("%s must be >= 0, got %v", key, v)}
	}
	return v, true, nil
}

func volume(body map[string]any, key string) (int, bool, error) {
	v, ok, err := number(body, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if v > band.MaxVolume {
		return 0, true, &model.MalformedUpstreamResponseError{Reason: fmt.Sprintf("%s out of range: %v", key, v)}
	}
	return int(math.Round(v)), true, nil
}
