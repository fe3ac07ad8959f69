package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorStartsIdle(t *testing.T) {
	c := NewCoordinator()
	assert.False(t, c.Suspended())
	require.NoError(t, c.WaitIdle(context.Background()))
}

func TestCoordinatorSuspendBlocksWait(t *testing.T) {
	c := NewCoordinator()
	c.Suspend()
	assert.True(t, c.Suspended())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.WaitIdle(ctx))

	c.Resume()
	assert.False(t, c.Suspended())
	require.NoError(t, c.WaitIdle(context.Background()))
}

func TestCoordinatorSuspendsNest(t *testing.T) {
	c := NewCoordinator()
	c.Suspend()
	c.Suspend()
	c.Resume()
	assert.True(t, c.Suspended())
	c.Resume()
	assert.False(t, c.Suspended())
}

func TestCoordinatorExtraResumeIgnored(t *testing.T) {
	c := NewCoordinator()
	c.Resume()
	assert.False(t, c.Suspended())
	c.Suspend()
	assert.True(t, c.Suspended())
	c.Resume()
	assert.False(t, c.Suspended())
}

func TestCoordinatorWaitWakesOnResume(t *testing.T) {
	c := NewCoordinator()
	c.Suspend()

	done := make(chan error, 1)
	go func() {
		done <- c.WaitIdle(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	c.Resume()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake after resume")
	}
}
