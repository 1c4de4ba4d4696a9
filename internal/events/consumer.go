package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"user-management-app/internal/entity"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Event is a decoded user-topic message.
type Event struct {
	Name string
	User entity.User
}

// HandlerFunc processes one event. Errors are logged and the message is
// skipped.
type HandlerFunc func(ctx context.Context, event Event) error

type Consumer struct {
	reader MessageReader
	handle HandlerFunc
}

func NewConsumer(reader MessageReader, handle HandlerFunc) *Consumer {
	return &Consumer{reader: reader, handle: handle}
}

// Run reads messages until ctx is done or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			log.Error().Err(err).Msg("Error reading message")
			return err
		}

		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	event, err := DecodeMessage(msg)
	if err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("Skipping message")
		return
	}

	if err := c.handle(ctx, event); err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("Error handling event")
	}
}

// DecodeMessage parses a "user-<event>-<id>" keyed message.
func DecodeMessage(msg kafka.Message) (Event, error) {
	name, id, err := ParseMessageKey(string(msg.Key))
	if err != nil {
		return Event{}, err
	}

	var user entity.User
	if err := json.Unmarshal(msg.Value, &user); err != nil {
		return Event{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if user.ID != id {
		return Event{}, fmt.Errorf("key id %d does not match payload id %d", id, user.ID)
	}

	return Event{Name: name, User: user}, nil
}

// ParseMessageKey is the inverse of MessageKey.
func ParseMessageKey(key string) (string, int, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 || parts[0] != "user" {
		return "", 0, fmt.Errorf("malformed key %q", key)
	}

	switch parts[1] {
	case UserCreated, UserUpdated, UserDeleted:
	default:
		return "", 0, fmt.Errorf("unknown event %q", parts[1])
	}

	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed id in key %q", key)
	}
	return parts[1], id, nil
}
