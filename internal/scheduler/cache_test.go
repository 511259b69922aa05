package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hbomb79/vtm/internal/scheduler"
	"github.com/hbomb79/vtm/pkg/logger"
)

func TestDataCache_PutGetTouch(t *testing.T) {
	cache := scheduler.NewDataCache()
	key := scheduler.DataKey{Type: "X", FrameID: 3}

	_, ok := cache.Get(key)
	assert.False(t, ok)

	item := &scheduler.DataItem{Type: "X", FrameID: 3, Payload: 42}
	cache.Put(item)

	got, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 42, got.Payload)
	assert.Equal(t, uint32(0), got.Touched())

	cache.Touch(key)
	cache.Touch(key)
	assert.Equal(t, uint32(2), got.Touched())
}

func TestDataCache_EvictOlderThan(t *testing.T) {
	cache := scheduler.NewDataCache()
	cache.Put(&scheduler.DataItem{Type: "X", FrameID: 1})
	cache.Put(&scheduler.DataItem{Type: "X", FrameID: 5})
	cache.Put(&scheduler.DataItem{Type: "X", FrameID: 9})

	cache.EvictOlderThan(5, noopLogger{})

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(scheduler.DataKey{Type: "X", FrameID: 1})
	assert.False(t, ok, "item older than the threshold should be evicted")
	_, ok = cache.Get(scheduler.DataKey{Type: "X", FrameID: 5})
	assert.True(t, ok, "item at the threshold should be kept")
}

// noopLogger satisfies logger.Logger without printing to stdout during
// tests; EvictOlderThan's dead-product warning path is exercised
// above without asserting on log output, since the logger package
// writes straight to the console rather than an injectable sink.
type noopLogger struct{}

func (noopLogger) Emit(_ logger.Status, _ string, _ ...any) {}
func (noopLogger) Verbosef(_ string, _ ...any)              {}
func (noopLogger) Debugf(_ string, _ ...any)                {}
func (noopLogger) Infof(_ string, _ ...any)                 {}
func (noopLogger) Warnf(_ string, _ ...any)                 {}
func (noopLogger) Errorf(_ string, _ ...any)                {}
func (noopLogger) Fatalf(_ string, _ ...any)                {}
