package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// bufferCapacity is how many messages we hold while the broker is
// unreachable. At one transition per second this is over an hour of
// backlog, far more than a chute ever produces.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages that
// cannot be delivered are held in a ring buffer and replayed when the
// connection comes back.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. The
// connection is established in the background and retried until it
// succeeds, so a down broker does not block daemon startup.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{buf: newRingBuffer(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("chute-monitor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	p.client.Connect() // retries in the background

	return p
}

// Publish sends a status transition event to the broker.
func (p *RealPublisher) Publish(event StatusEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(Topic, payload, 0, false)
}

// PublishSystem sends a system lifecycle event to the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want delivery
	return p.send(TopicSystem, payload, 1, event.Retained)
}

// send delivers the message now if connected, or buffers it for replay.
func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnectionOpen() {
		p.buffer(topic, payload, qos, retained)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		// The token may still complete after we stop waiting; buffering
		// here would deliver the message twice after a reconnect.
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		p.buffer(topic, payload, qos, retained)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *RealPublisher) buffer(topic string, payload []byte, qos byte, retained bool) {
	p.mu.Lock()
	p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
	p.mu.Unlock()
}

// onConnect replays anything buffered while disconnected.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	p.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d buffered messages", len(pending))
	for _, msg := range pending {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", msg.topic)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
