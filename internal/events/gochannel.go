package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MetadataKey is the watermill metadata entry carrying the partition key.
const MetadataKey = "key"

// InProcess publishes events on a watermill GoChannel. Subscribers in the
// same process receive them; without subscribers events are dropped.
type InProcess struct {
	ch *gochannel.GoChannel
}

// NewInProcess builds an in-process publisher.
func NewInProcess(logger watermill.LoggerAdapter) *InProcess {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &InProcess{ch: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)}
}

// Publish implements Publisher.
func (p *InProcess) Publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataKey, key)
	msg.SetContext(ctx)
	return p.ch.Publish(topic, msg)
}

// Subscribe returns a channel of messages published to topic. Consumers must
// Ack each message.
func (p *InProcess) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.ch.Subscribe(ctx, topic)
}

// Close implements Publisher.
func (p *InProcess) Close() error { return p.ch.Close() }
