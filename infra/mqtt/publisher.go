package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/wellcast/core/logger"
	"github.com/kilianp07/wellcast/core/model"
	coremon "github.com/kilianp07/wellcast/core/monitoring"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ForecastMessage is the JSON payload published for each forecast.
type ForecastMessage struct {
	RequestID      string       `json:"request_id"`
	Source         model.Source `json:"source"`
	P10            int          `json:"p10"`
	P50            int          `json:"p50"`
	P90            int          `json:"p90"`
	MAE            float64      `json:"mae"`
	Fallback       bool         `json:"fallback"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
	Timestamp      int64        `json:"timestamp"`
}

// Publisher sends successful forecasts to <topic_prefix>/<source>.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
	mon        coremon.Monitor
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config, log logger.Logger, mon coremon.Monitor) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if mon == nil {
		mon = coremon.NopMonitor{}
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
		mon:        mon,
	}, nil
}

// Topic returns the topic a forecast from src is published on.
func (p *Publisher) Topic(src model.Source) string {
	return p.prefix + "/" + string(src)
}

// Publish sends one forecast event. Failed predictions are not published.
func (p *Publisher) Publish(ctx context.Context, ev model.PredictionEvent) error {
	if !ev.OK() {
		return nil
	}
	payload, err := json.Marshal(ForecastMessage{
		RequestID:      ev.RequestID,
		Source:         ev.Source,
		P10:            ev.P10,
		P50:            ev.P50,
		P90:            ev.P90,
		MAE:            ev.MAE,
		Fallback:       ev.Fallback,
		FallbackReason: ev.FallbackReason,
		Timestamp:      ev.Time.UnixMilli(),
	})
	if err != nil {
		return err
	}
	topic := p.Topic(ev.Source)

	err = p.publishWithRetry(ctx, topic, payload)
	if err == nil {
		p.log.Debugf("published forecast %s to %s", ev.RequestID, topic)
		return nil
	}
	err = fmt.Errorf("publish %s: %w", topic, err)
	p.mon.CaptureException(err, map[string]string{"module": "mqtt", "request_id": ev.RequestID})
	return err
}

func (p *Publisher) publishWithRetry(ctx context.Context, topic string, payload []byte) error {
	var err error
	for attempt := 0; ; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, err)
		if attempt >= p.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
}

// Run publishes every event received until ctx is done or events is closed.
func (p *Publisher) Run(ctx context.Context, events <-chan model.PredictionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = p.Publish(ctx, ev)
		}
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
