// Package scheduler provides a small deferred-execution substrate on top
// of a Redis sorted set: tasks are added with their fire time as score and
// popped atomically once due. Delivery is at-least-once for handler
// failures, so consumers must tolerate duplicate and late invocations.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "scheduler:tasks"

// Task is a unit of deferred work. Payload is opaque to the scheduler.
type Task struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewTask builds a task of the given type with a JSON-encoded payload.
func NewTask(taskType string, payload any) (Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("failed to marshal payload for task %q: %w", taskType, err)
	}

	return Task{
		ID:      uuid.New().String(),
		Type:    taskType,
		Payload: data,
	}, nil
}

// periodicTask returns the fixed-member task used for recurring work. The
// member bytes are deterministic, so concurrently running instances that
// all try to arm the same cron entry collapse into a single queue member.
func periodicTask(taskType string) Task {
	return Task{
		ID:   "periodic:" + taskType,
		Type: taskType,
	}
}

type Client struct {
	redis    redis.UniversalClient
	queueKey string
}

func NewClient(rdb redis.UniversalClient) *Client {
	return &Client{
		redis:    rdb,
		queueKey: defaultQueueKey,
	}
}

// Schedule enqueues the task to fire no earlier than fireAt. The scheduled
// deadline is a lower bound only; delivery may be arbitrarily late. Scores
// carry millisecond precision so a deadline is never rounded down into the
// past.
func (c *Client) Schedule(ctx context.Context, task Task, fireAt time.Time) error {
	member, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task %q: %w", task.Type, err)
	}

	err = c.redis.ZAdd(ctx, c.queueKey, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule task %q: %w", task.Type, err)
	}

	return nil
}

// Enqueue schedules the task for immediate delivery.
func (c *Client) Enqueue(ctx context.Context, task Task) error {
	return c.Schedule(ctx, task, time.Now())
}

// armPeriodic registers a recurring task's next run. ZAddNX keeps the first
// scheduled run when several instances race to arm the same entry.
func (c *Client) armPeriodic(ctx context.Context, taskType string, fireAt time.Time) error {
	member, err := json.Marshal(periodicTask(taskType))
	if err != nil {
		return err
	}

	return c.redis.ZAddNX(ctx, c.queueKey, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: member,
	}).Err()
}
