// Package publish forwards announcements to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/echocat/slf4g"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ayusman/signvoice/internal/announce"
)

const (
	DefaultTopic   = "signvoice/announcements"
	publishTimeout = 5 * time.Second
)

// ErrNoBroker is returned by Connect when no broker is configured.
var ErrNoBroker = errors.New("mqtt broker not configured")

// Config holds the MQTT connection settings.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Message is the JSON payload published for every announcement.
type Message struct {
	Gloss     string    `json:"gloss"`
	Text      string    `json:"text"`
	Mode      string    `json:"mode"`
	Spoken    bool      `json:"spoken"`
	SessionID string    `json:"sessionId,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher is an announce.Listener that publishes to one topic.
type Publisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	session func() string
}

// Connect dials the broker and returns a Publisher.
func Connect(config Config, session func() string) (*Publisher, error) {
	if config.Broker == "" {
		return nil, ErrNoBroker
	}
	if config.ClientID == "" {
		config.ClientID = "signvoice-" + uuid.New().String()
	}

	log.With("broker", config.Broker).
		With("clientId", config.ClientID).
		Info("Connecting to MQTT.")

	opts := mqtt.NewClientOptions().AddBroker(config.Broker).SetClientID(config.ClientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost.")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", config.Broker, token.Error())
	}

	return NewPublisher(client, config.Topic, config.QoS, session), nil
}

// NewPublisher wraps an already connected client. session reports the
// current session ID and may be nil.
func NewPublisher(client mqtt.Client, topic string, qos byte, session func() string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: client, topic: topic, qos: qos, session: session}
}

// Topic returns the topic announcements are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Announced implements announce.Listener. It does not wait for delivery.
func (p *Publisher) Announced(a announce.Announcement) {
	msg := Message{
		Gloss:  string(a.Gloss),
		Text:   a.Text,
		Mode:   a.Mode.String(),
		Spoken: a.Spoken,
		At:     a.At,
	}
	if p.session != nil {
		msg.SessionID = p.session()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("Cannot encode announcement for MQTT.")
		return
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.With("topic", p.topic).Warn("MQTT publish timed out.")
			return
		}
		if err := token.Error(); err != nil {
			log.WithError(err).With("topic", p.topic).Warn("MQTT publish failed.")
		}
	}()
}

// Close disconnects from the broker, allowing in-flight publishes 250ms.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
