package runtime

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	idspkg "github.com/drblury/mqflow/internal/runtime/ids"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
)

// Producer puts messages and channel status records onto a broker, where a
// watermill queue client on the same broker retrieves them.
type Producer struct {
	publisher    message.Publisher
	statusPrefix string
}

// NewProducer returns a producer publishing through publisher.
func NewProducer(publisher message.Publisher) (*Producer, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	return &Producer{publisher: publisher, statusPrefix: mqclient.DefaultStatusTopicPrefix}, nil
}

// WithStatusTopicPrefix matches mqclient.WithStatusTopicPrefix on the client.
func (p *Producer) WithStatusTopicPrefix(prefix string) *Producer {
	return &Producer{publisher: p.publisher, statusPrefix: prefix}
}

// Put publishes msgs onto queue in order. The descriptor of every message
// travels as mq_* metadata.
func (p *Producer) Put(ctx context.Context, queue string, msgs ...*mqclient.RawMessage) error {
	if queue == "" {
		return errspkg.ErrTopicRequired
	}
	out := make([]*message.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.ToWatermill()
		if ctx != nil {
			out[i].SetContext(ctx)
		}
	}
	if err := p.publisher.Publish(queue, out...); err != nil {
		return fmt.Errorf("failed to put messages on %s: %w", queue, err)
	}
	return nil
}

// PutStatus publishes the status records of channel.
func (p *Producer) PutStatus(ctx context.Context, channel string, records ...mqclient.StatusRecord) error {
	if channel == "" {
		return errspkg.ErrTopicRequired
	}
	out := make([]*message.Message, len(records))
	for i, rec := range records {
		payload, err := rec.Encode()
		if err != nil {
			return err
		}
		out[i] = message.NewMessage(idspkg.CreateULID(), payload)
		if ctx != nil {
			out[i].SetContext(ctx)
		}
	}
	topic := p.statusPrefix + channel
	if err := p.publisher.Publish(topic, out...); err != nil {
		return fmt.Errorf("failed to put status records on %s: %w", topic, err)
	}
	return nil
}
