package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	transcriptKeyPrefix  = "chat:transcript:"
	defaultMaxMessages   = 200
	defaultTranscriptTTL = 7 * 24 * time.Hour
)

// Message is one line of a chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Topic     string    `json:"topic,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore persists chat history per session.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	List(ctx context.Context, sessionID string, limit int64) ([]Message, error)
}

// RedisTranscriptStore keeps a bounded list per session that expires after inactivity.
type RedisTranscriptStore struct {
	client      *redis.Client
	maxMessages int64
	ttl         time.Duration
}

func NewRedisTranscriptStore(client *redis.Client) *RedisTranscriptStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	return &RedisTranscriptStore{client: client, maxMessages: defaultMaxMessages, ttl: defaultTranscriptTTL}
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

func (s *RedisTranscriptStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("chat: encode message: %w", err)
		}
		args = append(args, raw)
	}
	key := transcriptKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, args...)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("chat: append transcript: %w", err)
	}
	return nil
}

// List returns the most recent limit messages, oldest first.
func (s *RedisTranscriptStore) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.client.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("chat: load transcript: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
