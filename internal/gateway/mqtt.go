package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Topic suffixes under the configured prefix.
const (
	commandSuffix = "/command"
	valueSuffix   = "/value"
	statusSuffix  = "/status"
)

// replyQueueSize bounds the answers waiting for the broker.
const replyQueueSize = 8

var errNotConnected = errors.New("mqtt not connected")

// TransportOption configures the MQTT transport.
type TransportOption func(*MQTTTransport)

// WithClientID sets the MQTT client id.
func WithClientID(id string) TransportOption {
	return func(t *MQTTTransport) {
		t.clientID = id
	}
}

// WithTopicPrefix sets the topic namespace, e.g. "ottobar/bar-1".
func WithTopicPrefix(prefix string) TransportOption {
	return func(t *MQTTTransport) {
		t.prefix = prefix
	}
}

// WithQoS sets the QoS used for every subscription and publish.
func WithQoS(qos byte) TransportOption {
	return func(t *MQTTTransport) {
		t.qos = qos
	}
}

// WithReadvertiseDelay sets how long to wait after a reconnect before
// announcing the appliance again.
func WithReadvertiseDelay(d time.Duration) TransportOption {
	return func(t *MQTTTransport) {
		t.readvertise = d
	}
}

// MQTTTransport carries protocol lines over an MQTT broker. Commands
// arrive on <prefix>/command; REQUEST answers are published, retained, on
// <prefix>/value so the last answer stays readable like a characteristic
// value. Presence is announced on <prefix>/status.
type MQTTTransport struct {
	broker      string
	clientID    string
	prefix      string
	qos         byte
	readvertise time.Duration
	inbox       *Inbox
	log         *logger.Logger

	client    mqtt.Client
	publish   func(topic string, payload []byte, retained bool) error
	subscribe func(topic string, handler mqtt.MessageHandler) error
	replies   chan []byte

	mu        sync.Mutex
	connected bool
	lost      bool
}

// NewMQTTTransport creates a transport feeding inbox. broker is host:port.
func NewMQTTTransport(broker string, inbox *Inbox, log *logger.Logger, opts ...TransportOption) *MQTTTransport {
	t := &MQTTTransport{
		broker:      broker,
		clientID:    "ottobar",
		prefix:      "ottobar",
		qos:         1,
		readvertise: 500 * time.Millisecond,
		inbox:       inbox,
		log:         log,
		replies:     make(chan []byte, replyQueueSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.publish = t.clientPublish
	t.subscribe = t.clientSubscribe
	return t
}

// Run connects and serves until ctx is cancelled. The client keeps
// reconnecting on its own, so an unreachable broker is logged, not fatal.
func (t *MQTTTransport) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", t.broker))
	opts.SetClientID(t.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetWill(t.prefix+statusSuffix, "offline", t.qos, true)
	opts.SetOnConnectHandler(func(mqtt.Client) { t.onConnect() })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { t.onConnectionLost(err) })

	t.client = mqtt.NewClient(opts)
	t.log.Info("connecting to broker %s as %s", t.broker, t.clientID)
	token := t.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		t.log.Warn("broker %s not reachable yet, retrying in the background", t.broker)
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	t.sendReplies(ctx)

	if t.client.IsConnected() {
		if err := t.publish(t.prefix+statusSuffix, []byte("offline"), true); err != nil {
			t.log.Warn("announcing offline: %v", err)
		}
	}
	t.client.Disconnect(250)
	t.log.Info("transport stopped")
	return nil
}

// Connected reports whether the broker session is up.
func (t *MQTTTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *MQTTTransport) onConnect() {
	t.mu.Lock()
	t.connected = true
	reconnect := t.lost
	t.lost = false
	t.mu.Unlock()

	if !reconnect {
		t.advertise()
		return
	}
	t.log.Info("reconnected, advertising again in %s", t.readvertise)
	time.AfterFunc(t.readvertise, t.advertise)
}

func (t *MQTTTransport) onConnectionLost(err error) {
	t.mu.Lock()
	t.connected = false
	t.lost = true
	t.mu.Unlock()
	t.log.Warn("connection lost: %v", err)
}

// advertise subscribes to the command topic and marks the appliance
// online. The session is not persistent, so this runs on every connect.
func (t *MQTTTransport) advertise() {
	if err := t.subscribe(t.prefix+commandSuffix, t.onMessage); err != nil {
		t.log.Error("subscribing to %s: %v", t.prefix+commandSuffix, err)
		return
	}
	if err := t.publish(t.prefix+statusSuffix, []byte("online"), true); err != nil {
		t.log.Error("announcing online: %v", err)
		return
	}
	t.log.Info("listening on %s", t.prefix+commandSuffix)
}

func (t *MQTTTransport) onMessage(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := Parse(string(msg.Payload()))
	if err != nil {
		t.log.Warn("discarding command: %v", err)
		return
	}
	t.log.Debug("received %s", cmd)
	t.inbox.Deliver(Envelope{Command: cmd, Reply: t.reply})
}

// reply is called from the dispatch loop, possibly mid-pour, so it only
// queues the answer. sendReplies does the publishing.
func (t *MQTTTransport) reply(payload []byte) {
	select {
	case t.replies <- payload:
	default:
		t.log.Warn("reply queue full, dropping %d byte answer", len(payload))
	}
}

// sendReplies publishes queued answers until ctx is cancelled.
func (t *MQTTTransport) sendReplies(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-t.replies:
			if err := t.publish(t.prefix+valueSuffix, payload, true); err != nil {
				t.log.Error("publishing reply: %v", err)
			}
		}
	}
}

func (t *MQTTTransport) clientPublish(topic string, payload []byte, retained bool) error {
	if t.client == nil || !t.client.IsConnected() {
		return errNotConnected
	}
	token := t.client.Publish(topic, t.qos, retained, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func (t *MQTTTransport) clientSubscribe(topic string, handler mqtt.MessageHandler) error {
	if t.client == nil {
		return errNotConnected
	}
	token := t.client.Subscribe(topic, t.qos, handler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	return token.Error()
}
