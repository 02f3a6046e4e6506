package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureFulfilOnce(t *testing.T) {
	f := newFuture()
	_, err := f.Result()
	assert.ErrorIs(t, err, ErrNoReply)

	assert.True(t, f.fulfil(&PongMessage{}))
	assert.False(t, f.fulfil(&PingMessage{}))
	assert.False(t, f.fail(errors.New("late")))

	resp, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &PongMessage{}, resp)
	assert.True(t, f.IsDone())
}

func TestFutureFail(t *testing.T) {
	f := newFuture()
	f.fail(ErrActorTerminated)

	_, err := f.WaitTimeout(time.Second)
	assert.ErrorIs(t, err, ErrActorTerminated)
}

func TestFutureAbandon(t *testing.T) {
	f := newFuture()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, f.Abandoned())

	// 放弃之后的回复被丢弃
	assert.False(t, f.fulfil(&PongMessage{}))
	assert.False(t, f.IsDone())

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFutureConcurrentComplete(t *testing.T) {
	f := newFuture()
	wins := make(chan bool, 2)
	go func() { wins <- f.fulfil(&PongMessage{}) }()
	go func() { wins <- f.abandon() }()

	a, b := <-wins, <-wins
	assert.True(t, a != b, "exactly one transition must win")
}
