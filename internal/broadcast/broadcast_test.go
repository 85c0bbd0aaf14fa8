package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

type published struct {
	screen, channel string
	payload         []byte
	retain          bool
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (r *recordingPublisher) Publish(screen, channel string, payload []byte, retain bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{screen, channel, payload, retain})
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestFanout(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewFanout(pub, "main-hall")
	at := time.Date(2025, 8, 5, 11, 58, 0, 0, time.UTC)

	f.OnEvent(model.Event{Kind: model.EventDisplay, From: "None", To: "Adzan", Prayer: model.Dzuhur, At: at})
	f.OnSnapshot(model.Snapshot{Mode: model.ModeCallToPrayer, Remaining: 300, At: at})

	require.Len(t, pub.sent, 2)

	assert.Equal(t, "main-hall", pub.sent[0].screen)
	assert.Equal(t, ChannelEvents, pub.sent[0].channel)
	assert.False(t, pub.sent[0].retain)
	var ev model.Event
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &ev))
	assert.Equal(t, model.Dzuhur, ev.Prayer)

	assert.Equal(t, ChannelState, pub.sent[1].channel)
	assert.True(t, pub.sent[1].retain)
	assert.Contains(t, string(pub.sent[1].payload), `"mode":"Adzan"`)
}

func TestFanoutKeepsGoingOnErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	f := NewFanout(pub, "s1")

	f.OnSnapshot(model.Snapshot{Mode: model.ModeNone})
	f.OnSnapshot(model.Snapshot{Mode: model.ModeNone})
	assert.True(t, f.failing)

	pub.err = nil
	f.OnSnapshot(model.Snapshot{Mode: model.ModeNone})
	assert.False(t, f.failing)
	assert.Len(t, pub.sent, 3)
}

func TestMulti(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{err: errors.New("nope")}
	m := Multi{a, b}

	err := m.Publish("s1", ChannelEvents, []byte("{}"), false)
	assert.Error(t, err)
	assert.Len(t, a.sent, 1)
	assert.Len(t, b.sent, 1)
	assert.NoError(t, m.Close())
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "minbar/main-hall/state", MQTTTopic("main-hall", ChannelState))
	assert.Equal(t, "minbar.main-hall.audio", NATSSubject("main-hall", ChannelAudio))
}

type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	mqtt.Message
	payload []byte
}

func (m fakeMessage) Payload() []byte { return m.payload }

type fakeClient struct {
	mqtt.Client
	topics   []string
	retained []bool
	handlers map[string]mqtt.MessageHandler
	err      error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.retained = append(c.retained, retained)
	return fakeToken{err: c.err}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	if c.handlers == nil {
		c.handlers = map[string]mqtt.MessageHandler{}
	}
	c.handlers[topic] = cb
	return fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTPublisher(client)

	require.NoError(t, p.Publish("s1", ChannelState, []byte("{}"), true))
	assert.Equal(t, []string{"minbar/s1/state"}, client.topics)
	assert.Equal(t, []bool{true}, client.retained)

	client.err = errors.New("not connected")
	assert.ErrorContains(t, p.Publish("s1", ChannelEvents, []byte("{}"), false), "minbar/s1/events")

	var got []byte
	require.NoError(t, p.Subscribe("s1", ChannelAudio, func(b []byte) { got = b }))
	handler := client.handlers["minbar/s1/audio"]
	require.NotNil(t, handler)
	handler(client, fakeMessage{payload: []byte(`{"action":"stop"}`)})
	assert.JSONEq(t, `{"action":"stop"}`, string(got))

	assert.NoError(t, p.Close())
}
