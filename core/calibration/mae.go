// Package calibration derives the error figure used by the band builder from
// holdout residuals.
package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/wellcast/core/band"
)

// Pair is one holdout well: observed and predicted 12-month volume.
type Pair struct {
	Observed  float64
	Predicted float64
}

// Summary describes residuals of a holdout set.
type Summary struct {
	Count int     `json:"count"`
	MAE   float64 `json:"mae"`
	Bias  float64 `json:"bias"`
	// Coverage is the share of observations within the P10/P90 band built
	// from each prediction and MAE.
	Coverage float64 `json:"coverage"`
	// NominalCoverage is what the Gaussian assumption promises for band.Z.
	NominalCoverage float64 `json:"nominal_coverage"`
}

// ErrNoPairs is returned when there is nothing to calibrate on.
var ErrNoPairs = errors.New("no residual pairs")

// MAE returns the mean absolute error of pairs.
func MAE(pairs []Pair) (float64, error) {
	if len(pairs) == 0 {
		return 0, ErrNoPairs
	}
	abs := make([]float64, len(pairs))
	for i, p := range pairs {
		abs[i] = math.Abs(p.Observed - p.Predicted)
	}
	return stat.Mean(abs, nil), nil
}

// Summarize computes MAE, mean signed error and empirical band coverage.
func Summarize(pairs []Pair) (Summary, error) {
	mae, err := MAE(pairs)
	if err != nil {
		return Summary{}, err
	}
	signed := make([]float64, len(pairs))
	inside := 0
	for i, p := range pairs {
		signed[i] = p.Predicted - p.Observed
		p10, p90 := band.Build(int(math.Round(p.Predicted)), mae)
		if p.Observed >= float64(p10) && p.Observed <= float64(p90) {
			inside++
		}
	}
	return Summary{
		Count:           len(pairs),
		MAE:             mae,
		Bias:            stat.Mean(signed, nil),
		Coverage:        float64(inside) / float64(len(pairs)),
		NominalCoverage: band.NominalCoverage(band.Z),
	}, nil
}

// ReadCSV loads pairs from CSV with "observed" and "predicted" columns. The
// header row is required; extra columns are ignored.
func ReadCSV(r io.Reader) ([]Pair, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoPairs
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	obsIdx, predIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "observed":
			obsIdx = i
		case "predicted":
			predIdx = i
		}
	}
	if obsIdx < 0 || predIdx < 0 {
		return nil, fmt.Errorf("header must contain observed and predicted columns")
	}
	var pairs []Pair
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs, err := strconv.ParseFloat(strings.TrimSpace(rec[obsIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: observed: %w", line, err)
		}
		pred, err := strconv.ParseFloat(strings.TrimSpace(rec[predIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: predicted: %w", line, err)
		}
		pairs = append(pairs, Pair{Observed: obs, Predicted: pred})
	}
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	return pairs, nil
}
