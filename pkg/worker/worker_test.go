package worker_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbomb79/vtm/pkg/worker"
)

func TestPool_RunsEveryPushedWorker(t *testing.T) {
	var count int32
	pool := worker.NewPool()

	for i := 0; i < 5; i++ {
		w := worker.New("inc", worker.TaskFunc(func(worker.Worker) error {
			atomic.AddInt32(&count, 1)
			return nil
		}))
		require.NoError(t, pool.Push(w))
	}

	require.NoError(t, pool.Start())
	pool.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&count))
}

func TestPool_RejectsPushAfterStart(t *testing.T) {
	pool := worker.NewPool()
	require.NoError(t, pool.Start())

	err := pool.Push(worker.New("late", worker.TaskFunc(func(worker.Worker) error { return nil })))

	assert.Error(t, err)
}

func TestPool_RejectsDoubleStart(t *testing.T) {
	pool := worker.NewPool()
	require.NoError(t, pool.Start())

	assert.Error(t, pool.Start())
}

func TestTaskWorker_StatusTransitions(t *testing.T) {
	w := worker.New("status", worker.TaskFunc(func(worker.Worker) error { return nil }))

	assert.Equal(t, worker.Sleeping, w.Status())
	w.Start()
	assert.Equal(t, worker.Finished, w.Status())
}
