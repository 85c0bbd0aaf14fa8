package broadcast

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	publishTimeout = 5 * time.Second
	disconnectWait = 250
)

// MQTT connection handlers
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTClient connects to brokerURL with auto reconnect enabled.
func NewMQTTClient(brokerURL, clientID, username, password string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("MQTT client initialized")
	return client, nil
}

// MQTTTopic is the per-screen topic, e.g. minbar/main-hall/state.
func MQTTTopic(screen, channel string) string {
	return fmt.Sprintf("minbar/%s/%s", screen, channel)
}

// MQTTPublisher publishes at QoS 1 on per-screen topics.
type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

func (p *MQTTPublisher) Publish(screen, channel string, payload []byte, retain bool) error {
	topic := MQTTTopic(screen, channel)
	token := p.client.Publish(topic, 1, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers handler for a screen channel, used by remote players.
func (p *MQTTPublisher) Subscribe(screen, channel string, handler func(payload []byte)) error {
	topic := MQTTTopic(screen, channel)
	token := p.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(disconnectWait)
	log.Info().Msg("MQTT client disconnected")
	return nil
}
