package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"user-management-app/internal/entity"
)

// Event names used in message keys.
const (
	UserCreated = "created"
	UserUpdated = "updated"
	UserDeleted = "deleted"
)

// Publisher announces user mutations.
type Publisher interface {
	Publish(ctx context.Context, event string, user *entity.User) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes the user as JSON keyed "user-<event>-<id>".
func (p *KafkaPublisher) Publish(ctx context.Context, event string, user *entity.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// user-created-1 or user-deleted-1
	msg := kafka.Message{
		Key:   []byte(MessageKey(event, user.ID)),
		Value: userJSON,
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// MessageKey builds the key for an event about user id.
func MessageKey(event string, id int) string {
	return fmt.Sprintf("user-%s-%d", event, id)
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event string, user *entity.User) error { return nil }
func (Noop) Close() error                                                       { return nil }
