//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/infra/logger"
)

// TestPublisherMosquitto publishes a forecast through a real broker.
func TestPublisherMosquitto(t *testing.T) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	got := make(chan ForecastMessage, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("sub connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe(DefaultTopicPrefix+"/#", 1, func(_ paho.Client, m paho.Message) {
		var msg ForecastMessage
		if json.Unmarshal(m.Payload(), &msg) == nil {
			got <- msg
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	pub, err := NewPublisher(Config{Enabled: true, Broker: broker, ClientID: "pub", QoS: 1}, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Disconnect()
	if err := pub.Publish(ctx, model.PredictionEvent{RequestID: "it", Source: model.SourceBaseline, P50: 118275, Time: time.Now()}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-got:
		if msg.RequestID != "it" || msg.P50 != 118275 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
