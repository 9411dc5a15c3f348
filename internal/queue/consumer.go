// Package queue is the Redis stream channel adapter. Front ends that cannot
// call the HTTP API (chat bridges, bots) append envelopes to a stream; the
// consumer feeds each one through the assistant and publishes the reply on
// the session's response channel.
//
// Delivery is at-least-once through a consumer group. Each entry is handled
// on its own goroutine, up to Concurrency at a time, and acknowledged once
// its own reply is published. Malformed entries are acknowledged too, so a
// poison message never blocks the group.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-assistant-backend/internal/config"
	"github.com/tbourn/go-assistant-backend/internal/services"
)

const (
	// EnvelopeField is the stream entry field holding the JSON envelope.
	EnvelopeField = "envelope"
	// ResponsePrefix prefixes the pub/sub channel of a session.
	ResponsePrefix = "response:"

	defaultBlock       = 5 * time.Second
	defaultRetryDelay  = time.Second
	defaultConcurrency = 8
)

// Response types published to a session.
const (
	TypeTyping  = "typing"
	TypeMessage = "message"
	TypeError   = "error"
)

var messagesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_messages_total",
		Help: "Stream entries handled by the consumer, by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(messagesTotal)
}

// Client is the subset of *redis.Client the consumer uses.
type Client interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Processor answers one message; *services.Assistant implements it.
type Processor interface {
	Handle(ctx context.Context, req services.ProcessRequest) services.Reply
}

// Content is the user payload of an envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Metadata carries optional hints from the channel.
type Metadata struct {
	Language string `json:"language,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Envelope is one inbound message as written by a channel bridge.
type Envelope struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Content   Content   `json:"content"`
	Metadata  Metadata  `json:"metadata"`
}

// Response is what the consumer publishes to response:<session>.
type Response struct {
	Type          string  `json:"type"`
	Text          string  `json:"text,omitempty"`
	SessionID     string  `json:"session_id,omitempty"`
	MessageID     string  `json:"message_id,omitempty"`
	Intent        string  `json:"intent,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Outcome       string  `json:"outcome,omitempty"`
	InteractionID string  `json:"interaction_id,omitempty"`
}

// Consumer reads one stream as a member of a consumer group.
type Consumer struct {
	rdb  Client
	proc Processor
	log  zerolog.Logger

	Stream string
	Group  string
	Name   string

	// Block bounds one XREADGROUP call; RetryDelay spaces reads after an error.
	Block      time.Duration
	RetryDelay time.Duration
	// Count is the batch size per read.
	Count int64
	// Concurrency caps entries in flight. Reads pause while it is reached.
	Concurrency int
}

// NewConsumer builds a consumer for cfg's stream and group.
func NewConsumer(rdb Client, proc Processor, cfg config.QueueConfig, log zerolog.Logger) *Consumer {
	return &Consumer{
		rdb:        rdb,
		proc:       proc,
		log:        log.With().Str("component", "queue").Str("stream", cfg.Stream).Logger(),
		Stream:     cfg.Stream,
		Group:      cfg.Group,
		Name:       cfg.Consumer,
		Block:      defaultBlock,
		RetryDelay: defaultRetryDelay,
		Count:      10,

		Concurrency: cfg.Concurrency,
	}
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// EnsureGroup creates the stream and the consumer group if missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.Stream, c.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.Group, err)
	}
	return nil
}

// Run consumes until ctx is canceled, waits for entries in flight, then
// returns nil. Read errors are logged and retried.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	c.log.Info().Str("group", c.Group).Str("consumer", c.Name).Int("concurrency", c.concurrency()).Msg("queue consumer started")

	var inflight errgroup.Group
	inflight.SetLimit(c.concurrency())

	for ctx.Err() == nil {
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.Group,
			Consumer: c.Name,
			Streams:  []string{c.Stream, ">"},
			Count:    c.Count,
			Block:    c.Block,
		}).Result()
		switch {
		case ctx.Err() != nil:
			// shutting down
		case errors.Is(err, redis.Nil):
			// block timed out with nothing new
		case err != nil:
			c.log.Error().Err(err).Msg("stream read failed")
			select {
			case <-ctx.Done():
			case <-time.After(c.RetryDelay):
			}
		default:
			for _, s := range streams {
				for _, msg := range s.Messages {
					inflight.Go(func() error {
						c.Handle(ctx, msg)
						return nil
					})
				}
			}
		}
	}
	_ = inflight.Wait()
	c.log.Info().Msg("queue consumer stopped")
	return nil
}

func (c *Consumer) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return defaultConcurrency
}

// Handle processes one stream entry and acknowledges it.
func (c *Consumer) Handle(ctx context.Context, msg redis.XMessage) {
	ctx, span := otel.Tracer("queue/Consumer").Start(ctx, "Handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("messaging.message.id", msg.ID)),
	)
	defer span.End()
	defer c.ack(ctx, msg.ID)

	env, err := decode(msg)
	if err != nil {
		messagesTotal.WithLabelValues("malformed").Inc()
		c.log.Warn().Err(err).Str("id", msg.ID).Msg("dropping malformed envelope")
		return
	}
	span.SetAttributes(attribute.String("channel", env.Channel))

	c.publish(ctx, env.SessionID, Response{Type: TypeTyping, SessionID: env.SessionID})

	rep := c.proc.Handle(ctx, services.ProcessRequest{
		Text:          env.Content.Text,
		Channel:       env.Channel,
		ChannelUserID: env.UserID,
		Hints: services.Hints{
			Language:   env.Metadata.Language,
			Timezone:   env.Metadata.Timezone,
			ReceivedAt: env.Timestamp,
		},
	})

	c.publish(ctx, env.SessionID, Response{
		Type:          TypeMessage,
		Text:          rep.Text,
		SessionID:     env.SessionID,
		MessageID:     env.MessageID,
		Intent:        string(rep.Intent),
		Confidence:    rep.Confidence,
		Outcome:       string(rep.Outcome),
		InteractionID: rep.InteractionID,
	})
	messagesTotal.WithLabelValues("processed").Inc()
}

func decode(msg redis.XMessage) (Envelope, error) {
	var env Envelope
	raw, ok := msg.Values[EnvelopeField].(string)
	if !ok {
		return env, fmt.Errorf("missing %q field", EnvelopeField)
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.SessionID == "" {
		return env, errors.New("envelope has no session_id")
	}
	return env, nil
}

func (c *Consumer) publish(ctx context.Context, session string, r Response) {
	data, err := json.Marshal(r)
	if err != nil {
		c.log.Error().Err(err).Msg("encode response")
		return
	}
	if err := c.rdb.Publish(ctx, ResponsePrefix+session, string(data)).Err(); err != nil {
		c.log.Error().Err(err).Str("session", session).Msg("publish response failed")
	}
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, c.Stream, c.Group, id).Err(); err != nil {
		c.log.Error().Err(err).Str("id", id).Msg("ack failed")
	}
}
