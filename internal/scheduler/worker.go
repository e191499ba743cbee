package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPollInterval = time.Second
	defaultRetryDelay   = 30 * time.Second
	popBatchSize        = 100
)

// popDueTasks atomically removes and returns every queue member whose fire
// time has passed. Pop-then-handle means a crash between the two can drop a
// delivery; consumers are written against the weaker "no earlier than, at
// least once on failure" contract rather than exactly-once.
var popDueTasks = redis.NewScript(`
	local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])

	if #due > 0 then
		redis.call("ZREM", KEYS[1], unpack(due))
	end

	return due
`)

// HandlerFunc consumes a task payload. A non-nil error causes redelivery
// after the retry delay, so handlers must be safe to run more than once.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type handlerEntry struct {
	fn    HandlerFunc
	every time.Duration
}

// Worker polls the due queue and dispatches tasks to registered handlers.
type Worker struct {
	client       *Client
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration

	mu       sync.Mutex
	handlers map[string]handlerEntry
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewWorker(client *Client, logger *slog.Logger) *Worker {
	return &Worker{
		client:       client,
		logger:       logger,
		pollInterval: defaultPollInterval,
		retryDelay:   defaultRetryDelay,
		handlers:     make(map[string]handlerEntry),
		now:          time.Now,
	}
}

// Handle registers a handler for one-shot tasks of the given type.
func (w *Worker) Handle(taskType string, fn HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[taskType] = handlerEntry{fn: fn}
}

// HandlePeriodic registers a recurring task. The worker arms the first run
// when it starts and re-arms the next one after every delivery.
func (w *Worker) HandlePeriodic(taskType string, every time.Duration, fn HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[taskType] = handlerEntry{fn: fn, every: every}
}

// Run polls for due tasks until the context is cancelled, then waits for
// in-flight handlers to drain.
func (w *Worker) Run(ctx context.Context) error {
	w.armPeriodicTasks(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) armPeriodicTasks(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for taskType, entry := range w.handlers {
		if entry.every == 0 {
			continue
		}

		err := w.client.armPeriodic(ctx, taskType, w.now().Add(entry.every))
		if err != nil {
			w.logger.Error("failed to arm periodic task", "task_type", taskType, "error", err)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	now := w.now().UnixMilli()

	members, err := popDueTasks.Run(ctx, w.client.redis, []string{w.client.queueKey}, now, popBatchSize).StringSlice()
	if err != nil {
		w.logger.Error("failed to pop due tasks", "error", err)
		return
	}

	for _, member := range members {
		w.wg.Add(1)

		go func(member string) {
			defer w.wg.Done()
			w.dispatch(ctx, member)
		}(member)
	}
}

func (w *Worker) dispatch(ctx context.Context, member string) {
	// The task is already popped from the queue. Shutdown must not cancel
	// the handler or its retry re-schedule mid-flight, or the delivery is
	// lost for good; Run waits for in-flight dispatches instead.
	ctx = context.WithoutCancel(ctx)

	var task Task

	err := json.Unmarshal([]byte(member), &task)
	if err != nil {
		w.logger.Error("dropping malformed task", "member", member, "error", err)
		return
	}

	w.mu.Lock()
	entry, ok := w.handlers[task.Type]
	w.mu.Unlock()

	if !ok {
		w.logger.Error("dropping task with no registered handler", "task_type", task.Type)
		return
	}

	// Re-arm recurring tasks before handling so a failing handler cannot
	// stall the schedule.
	if entry.every > 0 {
		err := w.client.Schedule(ctx, task, w.now().Add(entry.every))
		if err != nil {
			w.logger.Error("failed to re-arm periodic task", "task_type", task.Type, "error", err)
		}
	}

	err = entry.fn(ctx, task.Payload)
	if err != nil {
		w.logger.Error("task handler failed", "task_type", task.Type, "task_id", task.ID, "error", err)

		if entry.every == 0 {
			retryErr := w.client.Schedule(ctx, task, w.now().Add(w.retryDelay))
			if retryErr != nil {
				w.logger.Error("failed to schedule task retry", "task_type", task.Type, "error", retryErr)
			}
		}
	}
}
