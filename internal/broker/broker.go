// Package broker implements C6's durable queue: Redis Streams carrying the
// tuple (run_id, user_id, agent_id, chat_session_id?, question) from the
// Run Controller to the worker pool. Grounded on the teacher's existing
// redis/go-redis/v9 dependency — the teacher uses Redis only as a cache;
// this is the same client used for a second purpose, not a new dependency.
package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queryforge/core/internal/errors"
)

const (
	streamKey     = "runs:queue"
	consumerGroup = "runs:workers"
)

// Job is the durable payload carried by one stream entry.
type Job struct {
	RunID         uuid.UUID  `json:"run_id"`
	UserID        uuid.UUID  `json:"user_id"`
	AgentID       uuid.UUID  `json:"agent_id"`
	ChatSessionID *uuid.UUID `json:"chat_session_id,omitempty"`
	Question      string     `json:"question"`
}

// Delivery wraps a Job with the stream metadata needed to Ack or reclaim
// it.
type Delivery struct {
	ID  string
	Job Job
}

// Broker is the Redis Streams-backed durable queue.
type Broker struct {
	client   *redis.Client
	grace    time.Duration
	maxTries int
}

func New(client *redis.Client, visibilityGrace time.Duration, maxRetries int) *Broker {
	return &Broker{client: client, grace: visibilityGrace, maxTries: maxRetries}
}

// EnsureGroup creates the consumer group if it does not already exist.
// Called once at worker startup.
func (b *Broker) EnsureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, streamKey, consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return errors.Wrap(err, errors.ErrServiceUnavailable)
	}
	return nil
}

// Enqueue durably pushes a job onto the stream via XADD.
func (b *Broker) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternalServer)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{"job": string(data)},
	}).Err()
	if err != nil {
		return errors.Wrap(err, errors.ErrServiceUnavailable)
	}
	return nil
}

// Pull reads up to count undelivered entries for this consumer via
// XREADGROUP, blocking up to block for new entries.
func (b *Broker) Pull(ctx context.Context, consumer string, count int64, block time.Duration) ([]Delivery, error) {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumer,
		Streams:  []string{streamKey, ">"},
		Count:    count,
		Block:    block,
	}).Result()

	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable)
	}

	var deliveries []Delivery
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			job, parseErr := parseJob(msg.Values)
			if parseErr != nil {
				// A malformed entry is acked away so it doesn't jam the
				// group forever; it is not retried.
				b.Ack(ctx, msg.ID)
				continue
			}
			deliveries = append(deliveries, Delivery{ID: msg.ID, Job: job})
		}
	}
	return deliveries, nil
}

func parseJob(values map[string]interface{}) (Job, error) {
	raw, ok := values["job"].(string)
	if !ok {
		return Job{}, errors.New(errors.ErrInternalServer, "stream entry missing job field")
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, errors.Wrap(err, errors.ErrInternalServer)
	}
	return job, nil
}

// Ack acknowledges successful processing of a delivery, removing it from
// the pending entries list.
func (b *Broker) Ack(ctx context.Context, id string) error {
	return b.client.XAck(ctx, streamKey, consumerGroup, id).Err()
}

// ReclaimStale claims pending entries idle longer than the visibility
// timeout passed to New (cmd/worker passes the per-run timeout plus the
// visibility grace), handing them to consumer for redelivery — the mechanism behind a
// crashed worker's in-flight jobs eventually resurfacing.
func (b *Broker) ReclaimStale(ctx context.Context, consumer string, count int64) ([]Delivery, error) {
	messages, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamKey,
		Group:    consumerGroup,
		Consumer: consumer,
		MinIdle:  b.grace,
		Start:    "0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable)
	}

	var deliveries []Delivery
	for _, msg := range messages {
		job, parseErr := parseJob(msg.Values)
		if parseErr != nil {
			b.Ack(ctx, msg.ID)
			continue
		}
		deliveries = append(deliveries, Delivery{ID: msg.ID, Job: job})
	}
	return deliveries, nil
}
