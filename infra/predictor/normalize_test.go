package predictor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wellcast/core/model"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	obj, err := decodeObject([]byte(s))
	require.NoError(t, err)
	return obj
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.PredictionResult
	}{
		{"complete", `{"p50":124500,"p10":111892,"p90":137108,"mae":9850}`,
			model.PredictionResult{P50: 124500, P10: 111892, P90: 137108, MAE: 9850, Source: model.SourceUpstream}},
		{"rounds half away from zero", `{"p50":100.5,"p10":50.5,"p90":150.49,"mae":10}`,
			model.PredictionResult{P50: 101, P10: 51, P90: 150, MAE: 10, Source: model.SourceUpstream}},
		{"missing band uses upstream mae", `{"p50":124500,"mae":1000}`,
			model.PredictionResult{P50: 124500, P10: 123220, P90: 125780, MAE: 1000, Source: model.SourceUpstream}},
		{"missing p90 only", `{"p50":124500,"p10":100000}`,
			model.PredictionResult{P50: 124500, P10: 100000, P90: 137108, MAE: 9850, Source: model.SourceUpstream}},
		{"null treated as missing", `{"p50":1000,"p10":null,"mae":null}`,
			model.PredictionResult{P50: 1000, P10: 0, P90: 13608, MAE: 9850, Source: model.SourceUpstream}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(decode(t, tt.body), 9850)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, body := range []string{`{}`, `{"p50":null}`, `{"p50":-0.6}`, `{"p50":"1"}`, `{"p50":1,"p90":[1]}`, `{"p50":1e300}`, `{"p50":1,"mae":-3}`, `{"p50":1000,"mae":1e300}`} {
		_, err := Normalize(decode(t, body), 9850)
		var merr *model.MalformedUpstreamResponseError
		assert.ErrorAs(t, err, &merr, body)
	}
}

func TestNormalize_HugeMAEKeepsBandOrdered(t *testing.T) {
	_, err := Normalize(decode(t, `{"p50":1000.0,"mae":1e300}`), 9850)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.KindMalformedUpstream, kind)

	got, err := Normalize(decode(t, `{"p50":1000,"mae":5e14}`), 9850)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.P90, got.P50)
}

func TestNormalize_PlainFloats(t *testing.T) {
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"p50":118275}`), &body))
	got, err := Normalize(body, 9850)
	require.NoError(t, err)
	assert.Equal(t, 118275, got.P50)
	assert.Equal(t, 105667, got.P10)
	assert.Equal(t, 130883, got.P90)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.StrictResponse)
	assert.False(t, cfg.RetryTransport)
	assert.Equal(t, DefaultTimeout, cfg.Timeout())

	cfg.Mode = "magic"
	assert.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.BaseURL = "ftp://predictor"
	assert.Error(t, cfg.Validate())
}
