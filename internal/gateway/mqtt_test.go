package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottobar/internal/logger"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeBroker struct {
	mu         sync.Mutex
	published  []published
	subscribed []string
	subscribes chan struct{}
	publishes  chan struct{}
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subscribes: make(chan struct{}, 8), publishes: make(chan struct{}, 8)}
}

func (b *fakeBroker) publish(topic string, payload []byte, retained bool) error {
	b.mu.Lock()
	b.published = append(b.published, published{topic, string(payload), retained})
	b.mu.Unlock()
	b.publishes <- struct{}{}
	return nil
}

func (b *fakeBroker) sent() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.published...)
}

func (b *fakeBroker) subscribe(topic string, _ mqtt.MessageHandler) error {
	b.mu.Lock()
	b.subscribed = append(b.subscribed, topic)
	b.mu.Unlock()
	b.subscribes <- struct{}{}
	return nil
}

func newTestTransport(b *fakeBroker, inbox *Inbox, opts ...TransportOption) *MQTTTransport {
	opts = append([]TransportOption{WithTopicPrefix("bar/1")}, opts...)
	tr := NewMQTTTransport("localhost:1883", inbox, logger.Nop(), opts...)
	tr.publish = b.publish
	tr.subscribe = b.subscribe
	return tr
}

func TestTransportQueuesCommandsAndPublishesReplies(t *testing.T) {
	broker := newFakeBroker()
	inbox := NewInbox(4, logger.Nop())
	tr := newTestTransport(broker, inbox)

	tr.onMessage(nil, fakeMessage{topic: "bar/1/command", payload: []byte("REQUEST Stock")})
	tr.onMessage(nil, fakeMessage{topic: "bar/1/command", payload: []byte("HELLO")})

	env, ok := inbox.Next(true)
	require.True(t, ok)
	assert.Equal(t, Command{Verb: VerbRequest, Resource: ResourceStock}, env.Command)
	_, ok = inbox.Next(true)
	assert.False(t, ok, "unparseable lines are discarded")

	env.Reply([]byte(`[]`))
	assert.Empty(t, broker.sent(), "replies wait for the sender")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.sendReplies(ctx)

	select {
	case <-broker.publishes:
	case <-time.After(2 * time.Second):
		t.Fatal("reply never published")
	}
	assert.Equal(t, []published{{"bar/1/value", "[]", true}}, broker.sent())
}

func TestReplyDoesNotWaitForBroker(t *testing.T) {
	tr := NewMQTTTransport("localhost:1883", NewInbox(1, logger.Nop()), logger.Nop(), WithTopicPrefix("bar/1"))
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	tr.publish = func(string, []byte, bool) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		tr.sendReplies(ctx)
		close(stopped)
	}()

	tr.reply([]byte(`[]`))
	<-started // the broker is now stuck on the first answer

	done := make(chan struct{})
	go func() {
		for range replyQueueSize + 2 {
			tr.reply([]byte(`[]`))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reply blocked on a stalled broker")
	}

	close(release)
	cancel()
	<-stopped
}

func TestTransportAdvertisesOnConnect(t *testing.T) {
	broker := newFakeBroker()
	tr := newTestTransport(broker, NewInbox(1, logger.Nop()))

	tr.onConnect()
	<-broker.subscribes

	assert.True(t, tr.Connected())
	assert.Equal(t, []string{"bar/1/command"}, broker.subscribed)
	assert.Equal(t, []published{{"bar/1/status", "online", true}}, broker.sent())
}

func TestTransportReadvertisesAfterDelay(t *testing.T) {
	broker := newFakeBroker()
	tr := newTestTransport(broker, NewInbox(1, logger.Nop()), WithReadvertiseDelay(20*time.Millisecond))

	tr.onConnect()
	<-broker.subscribes
	tr.onConnectionLost(errors.New("link down"))
	assert.False(t, tr.Connected())

	start := time.Now()
	tr.onConnect()
	select {
	case <-broker.subscribes:
	case <-time.After(2 * time.Second):
		t.Fatal("transport never advertised again")
	}
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	broker.mu.Lock()
	defer broker.mu.Unlock()
	assert.Len(t, broker.subscribed, 2)
}
