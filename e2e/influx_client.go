// Package e2e runs the forecast service against real InfluxDB and Mosquitto
// containers. The suite only builds with the integration tag.
package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient reads back the points written by the influx metrics sink.
type InfluxClient struct {
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// ForecastField returns the latest value of field on the well_forecast point
// tagged with requestID. found is false when no such point exists yet.
func (c *InfluxClient) ForecastField(ctx context.Context, requestID, field string) (value any, found bool, err error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "well_forecast" and r.request_id == %q and r._field == %q)
  |> last()`, c.bucket, requestID, field)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = res.Close() }()
	for res.Next() {
		value, found = res.Record().Value(), true
	}
	return value, found, res.Err()
}

// WaitForecastField polls ForecastField until the point shows up or timeout
// elapses.
func (c *InfluxClient) WaitForecastField(ctx context.Context, requestID, field string, timeout time.Duration) (any, error) {
	deadline := time.Now().Add(timeout)
	for {
		v, ok, err := c.ForecastField(ctx, requestID, field)
		if err == nil && ok {
			return v, nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = fmt.Errorf("no %s point for request %s", field, requestID)
			}
			return nil, err
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
