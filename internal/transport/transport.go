// Package transport provides the ordered, in-process duplex channel that
// carries protocol events between the host context and the UI context.
// It is built on watermill's gochannel pub/sub: one topic per direction,
// with publishes blocked until every subscriber has acked, so delivery
// is strictly FIFO end to end.
package transport

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/internal/protocol"
)

const (
	topicHostToUI = "beam.host-to-ui"
	topicUIToHost = "beam.ui-to-host"

	// receiveBuffer decouples a publisher from the pace of each
	// subscriber's consumer. A subscriber that stops draining entirely
	// eventually backpressures Send.
	receiveBuffer = 100
)

// Conn is an in-process bidirectional event channel. Both directions are
// lossless and ordered while the Conn is open; there is no delivery
// confirmation. Subscribe before publishing: events published to a topic
// with no subscribers are dropped.
type Conn struct {
	pubsub *gochannel.GoChannel
}

// New creates a new connection.
func New() *Conn {
	return &Conn{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				// Without this, gochannel hands each publish to its own
				// delivery goroutine and cross-publish order is lost.
				BlockPublishUntilSubscriberAck: true,
				Persistent:                     false,
			},
			watermill.NopLogger{},
		),
	}
}

// Host returns the host-side endpoint: sends host->UI, receives UI->host.
func (c *Conn) Host() Endpoint {
	return Endpoint{conn: c, sendTopic: topicHostToUI, recvTopic: topicUIToHost}
}

// UI returns the UI-side endpoint: sends UI->host, receives host->UI.
func (c *Conn) UI() Endpoint {
	return Endpoint{conn: c, sendTopic: topicUIToHost, recvTopic: topicHostToUI}
}

// Close tears down both directions. Receive channels are closed.
func (c *Conn) Close() error {
	return c.pubsub.Close()
}

// Endpoint is one side of the connection.
type Endpoint struct {
	conn      *Conn
	sendTopic string
	recvTopic string
}

// Send publishes an event to the other side. It returns once every live
// subscriber has accepted the event, which is what keeps one direction's
// events in emission order. A nil error means accepted, not processed.
func (e Endpoint) Send(ev protocol.Event) error {
	payload, err := protocol.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := e.conn.pubsub.Publish(e.sendTopic, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Receive subscribes to events from the other side. Events are delivered
// in publish order on the returned channel, which closes when ctx is done
// or the connection closes. Malformed payloads are logged and skipped.
func (e Endpoint) Receive(ctx context.Context) (<-chan protocol.Event, error) {
	msgs, err := e.conn.pubsub.Subscribe(ctx, e.recvTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", e.recvTopic, err)
	}

	log := logging.For("transport")
	out := make(chan protocol.Event, receiveBuffer)
	go func() {
		defer close(out)
		for msg := range msgs {
			ev, err := protocol.Unmarshal(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("messageID", msg.UUID).Msg("dropping malformed event")
				msg.Ack()
				continue
			}
			// Ack before handing off: the blocked publisher is released
			// in dequeue order, which is what makes delivery FIFO across
			// publishes.
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
