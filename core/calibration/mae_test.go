package calibration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMAE(t *testing.T) {
	mae, err := MAE([]Pair{{Observed: 100, Predicted: 90}, {Observed: 100, Predicted: 130}})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, mae, 1e-9)

	_, err = MAE(nil)
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestSummarize(t *testing.T) {
	pairs := []Pair{
		{Observed: 146200, Predicted: 124500},
		{Observed: 132880, Predicted: 134460},
		{Observed: 172450, Predicted: 143175},
		{Observed: 158210, Predicted: 150334},
	}
	s, err := Summarize(pairs)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, (21700.0+1580+29275+7876)/4, s.MAE, 1e-9)
	assert.Less(t, s.Bias, 0.0)
	assert.InDelta(t, 0.5, s.Coverage, 1e-9)
	assert.InDelta(t, 0.7995, s.NominalCoverage, 1e-3)
}

func TestReadCSV(t *testing.T) {
	in := "uwi, observed, predicted\n100/13-24-050-10W4/00, 146200, 124500\n102/07-15-062-05W5/00,132880,134460\n"
	pairs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Pair{{146200, 124500}, {132880, 134460}}, pairs)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoPairs)

	_, err = ReadCSV(strings.NewReader("observed,predicted\n"))
	assert.ErrorIs(t, err, ErrNoPairs)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("observed,predicted\nx,2\n"))
	assert.ErrorContains(t, err, "line 2")
}
