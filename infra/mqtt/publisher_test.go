package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/wellcast/core/model"
	coremon "github.com/kilianp07/wellcast/core/monitoring"
	"github.com/kilianp07/wellcast/infra/logger"
)

func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 || tlsCfg.RootCAs == nil {
		t.Fatalf("tls config incomplete")
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatalf("expected error for missing files")
	}
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", LWTTopic: "wellcast/status", LWTPayload: "offline"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "wellcast/status" {
		t.Fatalf("will not configured")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{Enabled: true, TopicPrefix: "plant/forecasts/"}
	cfg.SetDefaults()
	if cfg.TopicPrefix != "plant/forecasts" || cfg.ClientID != "wellcast" || cfg.MaxRetries != 3 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing broker error")
	}
	cfg.Broker = "tcp://localhost:1883"
	cfg.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestPublisher_PublishForecast(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883", QoS: 1}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	ev := model.PredictionEvent{RequestID: "r1", Source: model.SourceBaselineFallback, P10: 111892, P50: 124500, P90: 137108, MAE: 9850, Fallback: true, FallbackReason: "timeout", Time: time.UnixMilli(1700000000000)}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	pub := mc.Published()
	if len(pub) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub))
	}
	if pub[0].topic != "wellcast/forecasts/baseline_fallback" || pub[0].qos != 1 {
		t.Fatalf("unexpected topic/qos: %+v", pub[0])
	}
	var msg ForecastMessage
	if err := json.Unmarshal(pub[0].payload, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.P50 != 124500 || !msg.Fallback || msg.Timestamp != 1700000000000 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestPublisher_SkipsFailedPredictions(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883"}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), model.PredictionEvent{Kind: model.KindValidation}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.Published()) != 0 {
		t.Fatalf("failed prediction published")
	}
}

func TestPublisher_Retry(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), model.PredictionEvent{Source: model.SourceUpstream}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.Published()) != 2 {
		t.Fatalf("expected retry")
	}
}

func TestPublisher_ErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	withMockClient(t, mc)
	mon := &coremon.Recorder{}
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, logger.NopLogger{}, mon)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.Publish(context.Background(), model.PredictionEvent{RequestID: "r9", Source: model.SourceUpstream}); err == nil {
		t.Fatalf("expected error")
	}
	if len(mon.Errors) != 1 {
		t.Fatalf("error not captured")
	}
	if mon.Tags[0]["module"] != "mqtt" || mon.Tags[0]["request_id"] != "r9" {
		t.Fatalf("tags not set: %v", mon.Tags[0])
	}
}

func TestPublisher_RunDrainsChannel(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883"}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	events := make(chan model.PredictionEvent, 2)
	events <- model.PredictionEvent{Source: model.SourceUpstream}
	events <- model.PredictionEvent{Source: model.SourceBaseline}
	close(events)
	p.Run(context.Background(), events)
	if len(mc.Published()) != 2 {
		t.Fatalf("expected 2 publishes")
	}
	p.Disconnect()
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic: topic, qos: qos, payload: b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) Published() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.published...)
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
