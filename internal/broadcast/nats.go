package broadcast

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSSubject is the per-screen subject, e.g. minbar.main-hall.events.
func NATSSubject(screen, channel string) string {
	return fmt.Sprintf("minbar.%s.%s", screen, channel)
}

// NATSPublisher publishes on core NATS subjects. Retain is ignored: NATS has no
// retained messages and display clients read the snapshot endpoint on connect.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info().Str("url", url).Msg("NATS publisher initialized")
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(screen, channel string, payload []byte, _ bool) error {
	subject := NATSSubject(screen, channel)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
