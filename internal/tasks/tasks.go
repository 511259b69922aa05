// Package tasks provides concrete scheduler.Task implementations used
// by the demo program and by the scheduler package's own scenario
// tests, grounded in the shapes spec.md §8 walks through: a
// frame-only task, a cross-frame dependency, an optional-default
// input, and the stale/dead-product probes used to exercise eviction.
package tasks

import (
	"fmt"

	"github.com/hbomb79/vtm/internal/frame"
	"github.com/hbomb79/vtm/internal/scheduler"
	"github.com/hbomb79/vtm/pkg/logger"
)

var log = logger.Get("tasks")

const (
	TypeGrayscaleMean = "GRAYSCALE_MEAN"
	TypeDelta         = "DELTA"
	TypeAnnotation    = "ANNOTATION"
	TypeThumbnail     = "THUMBNAIL"
)

// identityTask requires only the frame itself and produces nothing:
// the "single identity task" scenario (spec §8 scenario 1), proving a
// frame reaches the release gate even with no derived products.
type identityTask struct {
	frameID uint64
}

func (t *identityTask) FrameID() uint64 { return t.frameID }

func (t *identityTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{scheduler.Required(scheduler.FrameType, t.frameID)}
}

func (t *identityTask) Execute(_ []any) ([]scheduler.Produced, error) {
	return nil, nil
}

// NewIdentityFactory returns a TaskFactory producing an identityTask
// for every ingested frame.
func NewIdentityFactory() scheduler.TaskFactory {
	return func(frameID uint64) scheduler.Task {
		return &identityTask{frameID: frameID}
	}
}

// grayscaleTask computes the mean byte value of a frame's pixel data,
// requiring only that frame's own FRAME item.
type grayscaleTask struct {
	frameID uint64
}

func (t *grayscaleTask) FrameID() uint64 { return t.frameID }

func (t *grayscaleTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{scheduler.Required(scheduler.FrameType, t.frameID)}
}

func (t *grayscaleTask) Execute(payloads []any) ([]scheduler.Produced, error) {
	f, ok := payloads[0].(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("grayscale task: expected *frame.Frame, got %T", payloads[0])
	}

	mean := meanByte(f.Data)
	log.Emit(logger.VERBOSE, "frame %d: grayscale mean=%.2f\n", t.frameID, mean)

	return []scheduler.Produced{{Type: TypeGrayscaleMean, FrameID: t.frameID, Payload: mean}}, nil
}

// NewGrayscaleFactory returns a TaskFactory computing a grayscale mean
// for every ingested frame.
func NewGrayscaleFactory() scheduler.TaskFactory {
	return func(frameID uint64) scheduler.Task {
		return &grayscaleTask{frameID: frameID}
	}
}

func meanByte(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return float64(sum) / float64(len(data))
}

// deltaTask requires the current frame's grayscale mean and the
// previous frame's DELTA, producing their signed difference - the
// cross-frame-dependency scenario (spec §8 scenario 2). Frame 0 has no
// predecessor, so NewDeltaFactory seeds DELTA directly at frame 0
// instead of constructing a deltaTask there.
type deltaTask struct {
	frameID uint64
}

func (t *deltaTask) FrameID() uint64 { return t.frameID }

func (t *deltaTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{
		scheduler.Required(TypeGrayscaleMean, t.frameID),
		scheduler.Required(TypeDelta, t.frameID-1),
	}
}

func (t *deltaTask) Execute(payloads []any) ([]scheduler.Produced, error) {
	current, ok := payloads[0].(float64)
	if !ok {
		return nil, fmt.Errorf("delta task: expected float64 current mean, got %T", payloads[0])
	}

	previous, ok := payloads[1].(float64)
	if !ok {
		return nil, fmt.Errorf("delta task: expected float64 previous delta, got %T", payloads[1])
	}

	return []scheduler.Produced{{Type: TypeDelta, FrameID: t.frameID, Payload: current - previous}}, nil
}

// deltaSeedTask bootstraps DELTA at frame 0 so a deltaTask at frame 1
// onward always has a predecessor value to consume.
type deltaSeedTask struct{}

func (t *deltaSeedTask) FrameID() uint64 { return 0 }

func (t *deltaSeedTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{scheduler.Required(scheduler.FrameType, 0)}
}

func (t *deltaSeedTask) Execute(_ []any) ([]scheduler.Produced, error) {
	return []scheduler.Produced{{Type: TypeDelta, FrameID: 0, Payload: 0.0}}, nil
}

// NewDeltaFactory returns a TaskFactory seeding DELTA at frame 0 and
// producing a deltaTask for every later frame.
func NewDeltaFactory() scheduler.TaskFactory {
	return func(frameID uint64) scheduler.Task {
		if frameID == 0 {
			return &deltaSeedTask{}
		}
		return &deltaTask{frameID: frameID}
	}
}

// Annotation is the optional, externally-supplied per-frame
// annotation a thumbnailTask folds into its output when present.
type Annotation struct {
	Label string
}

// thumbnailTask requires the frame itself and an optional ANNOTATION,
// defaulting to an empty Annotation when none was supplied for this
// frame - the optional-with-default scenario (spec §8 scenario 4).
type thumbnailTask struct {
	frameID uint64
}

func (t *thumbnailTask) FrameID() uint64 { return t.frameID }

func (t *thumbnailTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{
		scheduler.Required(scheduler.FrameType, t.frameID),
		scheduler.OptionalWithDefault(TypeAnnotation, t.frameID, Annotation{}),
	}
}

func (t *thumbnailTask) Execute(payloads []any) ([]scheduler.Produced, error) {
	f, ok := payloads[0].(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("thumbnail task: expected *frame.Frame, got %T", payloads[0])
	}

	annotation, ok := payloads[1].(Annotation)
	if !ok {
		return nil, fmt.Errorf("thumbnail task: expected Annotation, got %T", payloads[1])
	}

	label := annotation.Label
	if label == "" {
		label = "unlabeled"
	}
	log.Emit(logger.VERBOSE, "frame %d: thumbnail labeled %q\n", t.frameID, label)

	return []scheduler.Produced{{
		Type:    TypeThumbnail,
		FrameID: t.frameID,
		Payload: fmt.Sprintf("%s:%dx%d", label, f.Width, f.Height),
	}}, nil
}

// NewThumbnailFactory returns a TaskFactory producing a thumbnail
// label for every ingested frame.
func NewThumbnailFactory() scheduler.TaskFactory {
	return func(frameID uint64) scheduler.Task {
		return &thumbnailTask{frameID: frameID}
	}
}

// NeverReadyTask requires a key nothing ever produces, used to
// exercise staleness eviction (spec §8 scenario 3).
type NeverReadyTask struct {
	TaskFrameID uint64
}

func (t *NeverReadyTask) FrameID() uint64 { return t.TaskFrameID }

func (t *NeverReadyTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{scheduler.Required("NEVER_PRODUCED", t.TaskFrameID)}
}

func (t *NeverReadyTask) Execute(_ []any) ([]scheduler.Produced, error) {
	return nil, nil
}

// OrphanProducerTask produces a data item nothing ever consumes, used
// to exercise the dead-product warning on eviction (spec §8 scenario 6).
type OrphanProducerTask struct {
	TaskFrameID uint64
}

func (t *OrphanProducerTask) FrameID() uint64 { return t.TaskFrameID }

func (t *OrphanProducerTask) Required() []scheduler.RequestKey {
	return []scheduler.RequestKey{scheduler.Required(scheduler.FrameType, t.TaskFrameID)}
}

func (t *OrphanProducerTask) Execute(_ []any) ([]scheduler.Produced, error) {
	return []scheduler.Produced{{Type: "ORPHAN", FrameID: t.TaskFrameID, Payload: true}}, nil
}
