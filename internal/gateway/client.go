package gateway

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Client is the peer side of the protocol, used by the CLI.
type Client struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	replies chan []byte
}

// Dial connects a peer to the broker and listens for answers.
func Dial(ctx context.Context, broker, prefix string) (*Client, error) {
	c := &Client{prefix: prefix, qos: 1, replies: make(chan []byte, 1)}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID("ottobar-cli-" + uuid.NewString()[:8])
	c.client = mqtt.NewClient(opts)

	if err := wait(ctx, c.client.Connect()); err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	if err := wait(ctx, c.client.Subscribe(prefix+valueSuffix, c.qos, c.onValue)); err != nil {
		c.client.Disconnect(100)
		return nil, fmt.Errorf("subscribing to %s: %w", prefix+valueSuffix, err)
	}
	return c, nil
}

// Request asks for a resource and waits for the answer.
func (c *Client) Request(ctx context.Context, resource string) ([]byte, error) {
	if err := c.send(ctx, fmt.Sprintf("%s %s", VerbRequest, resource)); err != nil {
		return nil, err
	}
	select {
	case payload := <-c.replies:
		return payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", resource, ctx.Err())
	}
}

// Post replaces a resource. The appliance does not acknowledge.
func (c *Client) Post(ctx context.Context, resource string, payload []byte) error {
	return c.send(ctx, fmt.Sprintf("%s %s %s", VerbPost, resource, payload))
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

func (c *Client) send(ctx context.Context, line string) error {
	return wait(ctx, c.client.Publish(c.prefix+commandSuffix, c.qos, false, line))
}

// onValue keeps only fresh answers; the retained one is from an earlier
// exchange.
func (c *Client) onValue(_ mqtt.Client, msg mqtt.Message) {
	if msg.Retained() {
		return
	}
	select {
	case c.replies <- msg.Payload():
	default:
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return fmt.Errorf("broker did not answer")
	}
}
