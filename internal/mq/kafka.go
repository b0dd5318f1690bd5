package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/logger"
	"github.com/segmentio/kafka-go"
)

const kafkaMessageIDHeader = "message_id"

// KafkaBackend maps channels to Kafka topics. A single writer serves every
// topic; each subscription gets its own consumer-group reader.
type KafkaBackend struct {
	brokers []string
	groupID string

	mu     sync.Mutex
	writer *kafka.Writer
}

func NewKafkaBackend(cfg config.KafkaConfig) (*KafkaBackend, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("kafka group id is required")
	}

	return &KafkaBackend{
		brokers: cfg.Brokers,
		groupID: cfg.GroupID,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish writes one message to the topic named channel. Messages carrying a
// user id are keyed by it so the hash balancer keeps a user on one partition.
func (k *KafkaBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("kafka channel is required")
	}

	k.mu.Lock()
	writer := k.writer
	k.mu.Unlock()
	if writer == nil {
		return "", errors.New("kafka backend is closed")
	}

	messageID := uuid.NewString()
	if err := writer.WriteMessages(ctx, outgoingKafkaMessage(channel, messageID, data, attrs)); err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes the topic until ctx is done.
func (k *KafkaBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("kafka channel is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		GroupID: k.groupID,
		Topic:   channel,
	})
	defer func() {
		_ = reader.Close()
	}()

	return consumeKafka(ctx, reader, handler)
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consumeKafka commits each offset after its handler succeeds. A handler error
// stops consumption with the offset uncommitted, so the group resumes from
// that message on the next subscribe.
func consumeKafka(ctx context.Context, reader kafkaReader, handler Handler) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := handler(ctx, kafkaMessage(msg)); err != nil {
			logger.Log.Warnw("kafka handler failed, offset not committed",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			return fmt.Errorf("kafka %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// Close flushes and closes the writer.
func (k *KafkaBackend) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.writer == nil {
		return nil
	}
	err := k.writer.Close()
	k.writer = nil
	return err
}

func outgoingKafkaMessage(topic, messageID string, data []byte, attrs map[string]string) kafka.Message {
	headers := make([]kafka.Header, 0, len(attrs)+1)
	headers = append(headers, kafka.Header{Key: kafkaMessageIDHeader, Value: []byte(messageID)})
	for key, value := range attrs {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	key := attrs[attrUserID]
	if key == "" {
		key = messageID
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}
}

func kafkaMessage(msg kafka.Message) Message {
	message := Message{Data: msg.Value}
	if len(msg.Headers) > 0 {
		message.Attributes = make(map[string]string, len(msg.Headers))
	}
	for _, header := range msg.Headers {
		if header.Key == kafkaMessageIDHeader {
			message.ID = string(header.Value)
			continue
		}
		message.Attributes[header.Key] = string(header.Value)
	}
	return message
}
