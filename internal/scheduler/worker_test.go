package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedWorker(t *testing.T) (*Worker, redismock.ClientMock) {
	t.Helper()

	rdb, mock := redismock.NewClientMock()
	worker := NewWorker(NewClient(rdb), slog.New(slog.NewTextHandler(io.Discard, nil)))

	return worker, mock
}

func TestDispatchRetriesFailedTaskAfterShutdownStarted(t *testing.T) {
	worker, mock := newMockedWorker(t)

	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	worker.now = func() time.Time { return now }

	task := Task{ID: "task-1", Type: "booking:expire"}
	member, err := json.Marshal(task)
	require.NoError(t, err)

	var handlerCtxErr error
	worker.Handle("booking:expire", func(ctx context.Context, payload json.RawMessage) error {
		handlerCtxErr = ctx.Err()
		return errors.New("storage unavailable")
	})

	mock.ExpectZAdd(worker.client.queueKey, redis.Z{
		Score:  float64(now.Add(worker.retryDelay).UnixMilli()),
		Member: member,
	}).SetVal(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker.dispatch(ctx, string(member))

	assert.NoError(t, handlerCtxErr, "handler must not observe the cancelled poll context")
	assert.NoError(t, mock.ExpectationsWereMet(), "failed task must be re-queued for retry")
}

func TestDispatchRearmsPeriodicTaskBeforeHandling(t *testing.T) {
	worker, mock := newMockedWorker(t)

	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	worker.now = func() time.Time { return now }

	task := periodicTask("email:reminders")
	member, err := json.Marshal(task)
	require.NoError(t, err)

	handled := false
	worker.HandlePeriodic("email:reminders", 8*time.Hour, func(ctx context.Context, payload json.RawMessage) error {
		handled = true
		return nil
	})

	mock.ExpectZAdd(worker.client.queueKey, redis.Z{
		Score:  float64(now.Add(8 * time.Hour).UnixMilli()),
		Member: member,
	}).SetVal(1)

	worker.dispatch(context.Background(), string(member))

	assert.True(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleKeepsSubSecondPrecision(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewClient(rdb)

	task := Task{ID: "task-1", Type: "booking:expire"}
	member, err := json.Marshal(task)
	require.NoError(t, err)

	// A score truncated to whole seconds would make this task due half a
	// second before its deadline.
	fireAt := time.Date(2025, 6, 1, 18, 10, 0, 500_000_000, time.UTC)

	mock.ExpectZAdd(client.queueKey, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: member,
	}).SetVal(1)

	require.NoError(t, client.Schedule(context.Background(), task, fireAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPollSkipsTasksNotYetDue(t *testing.T) {
	worker, mock := newMockedWorker(t)

	now := time.Date(2025, 6, 1, 18, 0, 0, 250_000_000, time.UTC)
	worker.now = func() time.Time { return now }

	mock.ExpectEvalSha(popDueTasks.Hash(), []string{worker.client.queueKey}, now.UnixMilli(), popBatchSize).
		SetVal([]interface{}{})

	worker.poll(context.Background())
	worker.wg.Wait()

	assert.NoError(t, mock.ExpectationsWereMet())
}
