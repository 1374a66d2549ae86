package mqttlog

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Writer is an io.Writer that publishes every log line to an MQTT topic.
type Writer struct {
	client mqtt.Client
	topic  string
}

func NewWriter(client mqtt.Client, clientID string) *Writer {
	return &Writer{
		client: client,
		topic:  fmt.Sprintf("logs/%s", clientID),
	}
}

func (w *Writer) Topic() string {
	return w.topic
}

// Write never blocks on broker acknowledgement.
func (w *Writer) Write(p []byte) (int, error) {
	payload := make([]byte, len(p))
	copy(payload, p)

	w.client.Publish(w.topic, 0, false, payload)

	return len(p), nil
}

// Connect dials the broker and returns a connected client.
func Connect(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out after %s", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	return client, nil
}
