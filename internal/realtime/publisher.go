package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is the payload pushed to the realtime channel.
type Message struct {
	UID  string `json:"uid"`
	Text string `json:"txt"`
}

// Publisher bridges authenticated HTTP requests to the socket server by
// publishing messages on a Redis channel the socket server subscribes to.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewPublisher builds a publisher on the shared Redis client.
func NewPublisher(client *redis.Client, channel string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, channel: channel, logger: logger}
}

// Publish sends the message to the channel as JSON.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return err
	}
	p.logger.Debug("realtime message published",
		zap.String("channel", p.channel),
		zap.String("uid", msg.UID))
	return nil
}
