package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/infra/logger"
)

const (
	measurementForecast = "well_forecast"
	measurementUpstream = "predictor_call"
)

// InfluxConfig locates the InfluxDB bucket receiving forecast points.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes prediction outcomes to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink if the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes one well_forecast point. Failed requests carry the
// error kind tag and no volume fields.
func (s *InfluxSink) RecordPrediction(ev model.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement(measurementForecast).
		AddTag("request_id", ev.RequestID).
		AddTag("component", "prediction_service")
	if ev.Source != "" {
		p = p.AddTag("source", string(ev.Source))
	}
	if ev.Kind != "" {
		p = p.AddTag("kind", string(ev.Kind))
	}
	if ev.OK() {
		p = p.AddField("p10", ev.P10).
			AddField("p50", ev.P50).
			AddField("p90", ev.P90).
			AddField("mae", round3(ev.MAE)).
			AddField("fallback", ev.Fallback)
	}
	p = p.AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordUpstreamCall(ev model.UpstreamCall) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement(measurementUpstream).
		AddTag("status", strconv.Itoa(ev.StatusCode)).
		AddTag("timeout", strconv.FormatBool(ev.Timeout)).
		AddField("attempts", ev.Attempts).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
