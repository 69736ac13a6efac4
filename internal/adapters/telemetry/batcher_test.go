package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/scribe/internal/adapters/telemetry"
)

type collector struct {
	mu      sync.Mutex
	batches []string
	flushed chan struct{}
}

func newCollector() *collector {
	return &collector{flushed: make(chan struct{}, 16)}
}

func (c *collector) onFlush(data []byte) {
	c.mu.Lock()
	c.batches = append(c.batches, string(data))
	c.mu.Unlock()
	select {
	case c.flushed <- struct{}{}:
	default:
	}
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.batches...)
}

func TestBatchProcessor_FlushOnSize(t *testing.T) {
	c := newCollector()
	bp := telemetry.NewBatchProcessor(5, time.Hour, c.onFlush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("123"))
	require.NoError(t, err)
	assert.Empty(t, c.all())

	_, err = bp.Write([]byte("456"))
	require.NoError(t, err)
	assert.Equal(t, []string{"123456"}, c.all())
}

func TestBatchProcessor_FlushOnTime(t *testing.T) {
	c := newCollector()
	bp := telemetry.NewBatchProcessor(1024, 20*time.Millisecond, c.onFlush)
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("tick"))
	require.NoError(t, err)

	select {
	case <-c.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
	assert.Equal(t, []string{"tick"}, c.all())
}

func TestBatchProcessor_CloseFlushesAndRejectsWrites(t *testing.T) {
	c := newCollector()
	bp := telemetry.NewBatchProcessor(1024, time.Hour, c.onFlush)

	_, err := bp.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, bp.Close())
	require.NoError(t, bp.Close())
	assert.Equal(t, []string{"tail"}, c.all())

	_, err = bp.Write([]byte("late"))
	require.ErrorIs(t, err, telemetry.ErrBatcherClosed)
}
