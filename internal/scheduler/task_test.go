package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbomb79/vtm/internal/scheduler"
)

func TestTaskFactorySet_CreateAll_SkipsNil(t *testing.T) {
	set := scheduler.NewTaskFactorySet()
	set.Register(func(frameID uint64) scheduler.Task { return stubTask{id: frameID} })
	set.Register(func(frameID uint64) scheduler.Task { return nil })

	created, err := set.CreateAll(7)

	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, uint64(7), created[0].FrameID())
}

func TestTaskFactorySet_CreateAll_RecoversPanic(t *testing.T) {
	set := scheduler.NewTaskFactorySet()
	set.Register(func(frameID uint64) scheduler.Task { panic("boom") })

	_, err := set.CreateAll(1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTaskFactorySet_RegistrationOrderPreserved(t *testing.T) {
	set := scheduler.NewTaskFactorySet()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		set.Register(func(frameID uint64) scheduler.Task {
			order = append(order, i)
			return nil
		})
	}

	_, err := set.CreateAll(0)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

type stubTask struct{ id uint64 }

func (s stubTask) FrameID() uint64                              { return s.id }
func (s stubTask) Required() []scheduler.RequestKey             { return nil }
func (s stubTask) Execute(_ []any) ([]scheduler.Produced, error) { return nil, nil }
