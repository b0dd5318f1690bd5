package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/types"
)

// Attributes set on every activity message.
const (
	attrEventType   = "event_type"
	attrContentType = "content_type"

	// attrUserID scopes ordering. Backends that support it use the value as
	// their ordering or partition key so one user's events stay in order.
	attrUserID = "user_id"

	contentTypeJSON = "application/json"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// NewBackend builds the backend selected in cfg. It returns nil, nil when
// messaging is disabled.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case config.MQRabbitMQ:
		backend, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.MQPubSub:
		backend, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.MQKafka:
		backend, err := NewKafkaBackend(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}

// ActivityFeed publishes and consumes gallery activity events as JSON on a
// single channel.
type ActivityFeed struct {
	backend Backend
	channel string
}

func NewActivityFeed(backend Backend, channel string) *ActivityFeed {
	return &ActivityFeed{backend: backend, channel: channel}
}

// PublishActivity encodes the event and sends it to the activity channel.
func (f *ActivityFeed) PublishActivity(ctx context.Context, event types.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = f.backend.Publish(ctx, f.channel, data, map[string]string{
		attrEventType:   event.Type,
		attrUserID:      strconv.Itoa(event.UserID),
		attrContentType: contentTypeJSON,
	})
	return err
}

// Consume decodes activity events and hands them to fn until ctx is done.
// Undecodable messages are acknowledged and dropped.
func (f *ActivityFeed) Consume(ctx context.Context, fn func(ctx context.Context, event types.ActivityEvent) error) error {
	return f.backend.Subscribe(ctx, f.channel, func(ctx context.Context, msg Message) error {
		var event types.ActivityEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (f *ActivityFeed) Close() error {
	if f.backend == nil {
		return errors.New("mq backend is not configured")
	}
	return f.backend.Close()
}
