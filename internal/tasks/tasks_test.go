package tasks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gotestassert "gotest.tools/v3/assert"

	"github.com/hbomb79/vtm/internal/frame"
	"github.com/hbomb79/vtm/internal/tasks"
)

func TestGrayscaleTask_ComputesMean(t *testing.T) {
	factory := tasks.NewGrayscaleFactory()
	task := factory(3)

	f := frame.New(2, 2, []byte{0, 10, 20, 30})
	produced, err := task.Execute([]any{f})

	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, tasks.TypeGrayscaleMean, produced[0].Type)
	assert.Equal(t, uint64(3), produced[0].FrameID)
	assert.InDelta(t, 15.0, produced[0].Payload, 0.001)
}

func TestGrayscaleTask_RejectsWrongPayloadType(t *testing.T) {
	factory := tasks.NewGrayscaleFactory()
	task := factory(0)

	_, err := task.Execute([]any{"not a frame"})

	assert.Error(t, err)
}

func TestDeltaFactory_SeedsFrameZero(t *testing.T) {
	factory := tasks.NewDeltaFactory()
	seed := factory(0)

	produced, err := seed.Execute([]any{})

	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, 0.0, produced[0].Payload)
}

func TestDeltaTask_ComputesDifference(t *testing.T) {
	factory := tasks.NewDeltaFactory()
	task := factory(1)

	produced, err := task.Execute([]any{12.5, 2.5})

	require.NoError(t, err)
	require.Len(t, produced, 1)
	gotestassert.Equal(t, produced[0].Payload, 10.0)
	gotestassert.Equal(t, produced[0].Type, tasks.TypeDelta)
}

func TestThumbnailTask_DefaultsAnnotation(t *testing.T) {
	factory := tasks.NewThumbnailFactory()
	task := factory(0)

	f := frame.New(4, 2, nil)
	produced, err := task.Execute([]any{f, tasks.Annotation{}})

	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, "unlabeled:4x2", produced[0].Payload)
}

func TestThumbnailTask_UsesProvidedAnnotation(t *testing.T) {
	factory := tasks.NewThumbnailFactory()
	task := factory(0)

	f := frame.New(4, 2, nil)
	produced, err := task.Execute([]any{f, tasks.Annotation{Label: "cat"}})

	require.NoError(t, err)
	assert.Equal(t, "cat:4x2", produced[0].Payload)
}

func TestIdentityTask_RequiresOnlyFrame(t *testing.T) {
	factory := tasks.NewIdentityFactory()
	task := factory(9)

	required := task.Required()

	require.Len(t, required, 1)
	produced, err := task.Execute([]any{"anything"})
	require.NoError(t, err)
	assert.Nil(t, produced)
}
