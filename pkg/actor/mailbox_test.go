package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func seqEnvelope(sender, n int) *Envelope {
	return &Envelope{Message: &SeqMessage{Sender: sender, N: n}}
}

func TestUnboundedMailboxFIFO(t *testing.T) {
	m := NewUnboundedMailbox()
	assert.Nil(t, m.Dequeue())
	assert.Equal(t, 0, m.Cap())

	for i := 1; i <= 100; i++ {
		require.NoError(t, m.Enqueue(context.Background(), seqEnvelope(0, i), false))
	}
	assert.Equal(t, int64(100), m.Len())

	for i := 1; i <= 100; i++ {
		env := m.Dequeue()
		require.NotNil(t, env)
		assert.Equal(t, i, env.Message.(*SeqMessage).N)
	}
	assert.Nil(t, m.Dequeue())
	assert.Zero(t, m.Len())
}

func TestUnboundedMailboxConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 5000
	m := NewUnboundedMailbox()

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for n := 1; n <= perProducer; n++ {
				if err := m.Enqueue(context.Background(), seqEnvelope(p, n), false); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	last := make(map[int]int)
	total := 0
	for env := m.Dequeue(); env != nil; env = m.Dequeue() {
		msg := env.Message.(*SeqMessage)
		require.Equal(t, last[msg.Sender]+1, msg.N, "producer %d out of order", msg.Sender)
		last[msg.Sender] = msg.N
		total++
	}
	assert.Equal(t, producers*perProducer, total)
}

func TestBoundedMailboxCapacity(t *testing.T) {
	m := NewBoundedMailbox(3)
	assert.Equal(t, 3, m.Cap())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Enqueue(ctx, seqEnvelope(0, i), false))
	}
	assert.ErrorIs(t, m.Enqueue(ctx, seqEnvelope(0, 4), false), ErrMailboxFull)

	// 出队释放许可
	require.NotNil(t, m.Dequeue())
	require.NoError(t, m.Enqueue(ctx, seqEnvelope(0, 4), false))
	assert.Equal(t, int64(3), m.Len())
}

func TestBoundedMailboxConcurrentBurst(t *testing.T) {
	const capacity, senders = 16, 64
	m := NewBoundedMailbox(capacity)

	var g errgroup.Group
	results := make(chan error, senders)
	for s := 0; s < senders; s++ {
		g.Go(func() error {
			results <- m.Enqueue(context.Background(), seqEnvelope(s, 1), false)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var ok, full int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrMailboxFull):
			full++
		}
	}
	assert.Equal(t, capacity, ok)
	assert.Equal(t, senders-capacity, full)
	assert.Equal(t, int64(capacity), m.Len())
}

func TestBoundedMailboxBlockingEnqueue(t *testing.T) {
	m := NewBoundedMailbox(1)
	require.NoError(t, m.Enqueue(context.Background(), seqEnvelope(0, 1), false))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Enqueue(ctx, seqEnvelope(0, 2), true), context.DeadlineExceeded)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Enqueue(context.Background(), seqEnvelope(0, 2), true) }()

	time.Sleep(10 * time.Millisecond)
	require.NotNil(t, m.Dequeue())
	require.NoError(t, <-errCh)
	assert.Equal(t, 2, m.Dequeue().Message.(*SeqMessage).N)
}

func TestNewBoundedMailboxPanics(t *testing.T) {
	assert.Panics(t, func() { NewBoundedMailbox(0) })
}

func TestMailboxConfig(t *testing.T) {
	assert.False(t, Unbounded().IsBounded())
	assert.True(t, Bounded(8).IsBounded())
	assert.Equal(t, OverflowBlock, Bounded(8).Overflow)

	assert.IsType(t, &UnboundedMailbox{}, newMailbox(Unbounded()))
	assert.IsType(t, &BoundedMailbox{}, newMailbox(Bounded(8)))

	assert.Equal(t, "block", OverflowBlock.String())
	assert.Equal(t, "fail", OverflowFail.String())
}
