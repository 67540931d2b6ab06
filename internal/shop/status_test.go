package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus_Cycle(t *testing.T) {
	assert.Equal(t, StatusPreparing, NextStatus(StatusPending))
	assert.Equal(t, StatusCompleted, NextStatus(StatusPreparing))
	assert.Equal(t, StatusCancelled, NextStatus(StatusCompleted))
	assert.Equal(t, StatusPending, NextStatus(StatusCancelled))
}

func TestNextStatus_UnknownRestarts(t *testing.T) {
	assert.Equal(t, StatusPending, NextStatus("shipped"))
	assert.False(t, Status("shipped").Valid())
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPreparing, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("Pending").Valid())
}
