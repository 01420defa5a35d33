//go:build integration

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/wellcast/app"
	"github.com/kilianp07/wellcast/config"
	"github.com/kilianp07/wellcast/core/factory"
	"github.com/kilianp07/wellcast/infra/mqtt"
)

const (
	influxOrg    = "wellcast"
	influxBucket = "forecasts"
	influxToken  = "e2e-admin-token"
)

// startInflux starts an InfluxDB 2.7 container initialised with the test
// org, bucket and token, and returns its base URL.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "wellcast",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "wellcast-e2e",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a broker without authentication.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestForecastPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	influxURL := startInflux(ctx, t)
	broker := startMosquitto(ctx, t)

	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"p50":131000,"p10":118000,"p90":144000,"mae":10200}`))
	}))
	defer predictor.Close()

	got := make(chan mqtt.ForecastMessage, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("sub connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe(mqtt.DefaultTopicPrefix+"/#", 1, func(_ paho.Client, m paho.Message) {
		var msg mqtt.ForecastMessage
		if json.Unmarshal(m.Payload(), &msg) == nil {
			select {
			case got <- msg:
			default:
			}
		}
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Predictor.BaseURL = predictor.URL
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket},
	}}
	cfg.Publisher = mqtt.Config{Enabled: true, Broker: broker, ClientID: "e2e-pub", QoS: 1}
	cfg.Publisher.SetDefaults()

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer func() { _ = svc.Close() }()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = svc.Run(runCtx) }()
	select {
	case <-svc.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("service not ready")
	}

	payload := `{"primary_formation":"Montney","md_m":4100,"tvd_m":2300,"surface_lat":55.2,"surface_lon":-119.8,"operator":"Tourmaline Oil","spud_month":6,"proppant_tonnes":1200,"horizontal_flag":true}`
	req, _ := http.NewRequest(http.MethodPost, "http://"+svc.Addr()+"/predict", bytes.NewBufferString(payload))
	req.Header.Set("X-Request-ID", "e2e-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	select {
	case msg := <-got:
		if msg.RequestID != "e2e-1" || msg.P50 != 131000 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no forecast published")
	}

	influx := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer influx.Close()
	v, err := influx.WaitForecastField(ctx, "e2e-1", "p50", 15*time.Second)
	if err != nil {
		t.Fatalf("influx: %v", err)
	}
	if p50, ok := v.(int64); !ok || p50 != 131000 {
		t.Fatalf("unexpected p50 %v (%T)", v, v)
	}
}
