package scheduler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	type payload struct {
		BookingID string `json:"bookingId"`
	}

	task, err := NewTask("booking:expire", payload{BookingID: "b-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "booking:expire", task.Type)

	var decoded payload
	require.NoError(t, json.Unmarshal(task.Payload, &decoded))
	assert.Equal(t, "b-1", decoded.BookingID)
}

func TestPeriodicTaskMemberIsDeterministic(t *testing.T) {
	// Concurrent instances arm the same cron entry with ZAddNX, which only
	// dedupes if the member bytes are identical across processes.
	first, err := json.Marshal(periodicTask("email:show_reminders"))
	require.NoError(t, err)

	second, err := json.Marshal(periodicTask("email:show_reminders"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
