// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/volei/internal/config"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps the Redis connection together with the queue and channel names
// the club services share.
type Client struct {
	Rdb *redis.Client

	auditQueue           string
	scoreboardChannel    string
	notificationsChannel string
}

// Connect opens a client from cfg and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return New(rdb, cfg), nil
}

// New wraps an existing redis client.
func New(rdb *redis.Client, cfg config.RedisConfig) *Client {
	return &Client{
		Rdb:                  rdb,
		auditQueue:           cfg.AuditQueue,
		scoreboardChannel:    cfg.ScoreboardChannel,
		notificationsChannel: cfg.NotificationsChannel,
	}
}

func (c *Client) Close() error {
	return c.Rdb.Close()
}

// PublishAudit serializes the record to JSON, then pushes it to the audit queue.
func (c *Client) PublishAudit(ctx context.Context, record models.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AuditRecord: %w", err)
	}
	if err := c.Rdb.RPush(ctx, c.auditQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", c.auditQueue, err)
	}
	return nil
}

// PopAudit blocks up to timeout for the next audit record. It returns nil and
// no error when the queue stayed empty.
func (c *Client) PopAudit(ctx context.Context, timeout time.Duration) (*models.AuditRecord, error) {
	res, err := c.Rdb.BLPop(ctx, timeout, c.auditQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop: %w", err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}

	var record models.AuditRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid audit record: %w", err)
	}
	return &record, nil
}

// AuditBacklog is the number of records waiting in the queue.
func (c *Client) AuditBacklog(ctx context.Context) (int64, error) {
	return c.Rdb.LLen(ctx, c.auditQueue).Result()
}

// PublishScoreboard announces a scoreboard change to every server instance.
func (c *Client) PublishScoreboard(ctx context.Context, update models.ScoreboardUpdate) error {
	return c.publish(ctx, c.scoreboardChannel, update)
}

// PublishNotification pushes a member notification to the notifications channel.
func (c *Client) PublishNotification(ctx context.Context, n models.Notification) error {
	return c.publish(ctx, c.notificationsChannel, n)
}

func (c *Client) publish(ctx context.Context, channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", channel, err)
	}
	if err := c.Rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", channel, err)
	}
	return nil
}

// SubscribeScoreboard subscribes to the scoreboard channel. Updates are
// delivered on the returned channel until ctx is done; malformed messages are
// logged and skipped.
func (c *Client) SubscribeScoreboard(ctx context.Context, log *logrus.Logger) (<-chan models.ScoreboardUpdate, error) {
	sub := c.Rdb.Subscribe(ctx, c.scoreboardChannel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", c.scoreboardChannel, err)
	}

	out := make(chan models.ScoreboardUpdate)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var u models.ScoreboardUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
					log.WithError(err).Warn("invalid scoreboard message")
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
