package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

const publishTimeout = 5 * time.Second

var _ Publisher = &RealPublisher{}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	now    func() time.Time
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = "rachio-notifier"
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(false).
		SetConnectTimeout(10 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{
		client: client,
		now:    time.Now,
	}, nil
}

// Send publishes a notification. QoS 1, not retained.
func (p *RealPublisher) Send(ctx context.Context, n logic.Notification) error {
	payload, err := FormatNotificationPayload(n, p.now())
	if err != nil {
		return fmt.Errorf("format notification payload: %w", err)
	}
	return p.publish(ctx, TopicNotifications, false, payload)
}

// PublishOutcome publishes the invocation outcome. QoS 1, retained so the
// latest result is visible to late subscribers.
func (p *RealPublisher) PublishOutcome(event OutcomeEvent) error {
	payload, err := FormatOutcomePayload(event)
	if err != nil {
		return fmt.Errorf("format outcome payload: %w", err)
	}
	return p.publish(context.Background(), TopicStatus, true, payload)
}

func (p *RealPublisher) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(sendTimeout(ctx, publishTimeout)) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
