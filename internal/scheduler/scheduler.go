package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/vtm/pkg/logger"
)

var log = logger.Get("scheduler")

// DiagnosticSink receives every frame the Scheduler releases
// downstream, tagged with a format (spec §6), e.g. "jpg". A nil sink
// is permitted - released frames are simply dropped after any display.
type DiagnosticSink func(payload any, formatTag string) error

// Displayable is implemented by frame payloads that support the
// show=true on-screen display capability (spec §6).
type Displayable interface {
	Display(delay time.Duration)
}

// Scheduler orchestrates ingestion, readiness evaluation, execution,
// eviction and frame release (spec §4.4). It is single-threaded and
// cooperative: every operation runs synchronously on the caller's
// goroutine inside AddFrame, and a Scheduler instance must never be
// called concurrently from two goroutines (spec §5) - this is a
// documented caller contract, not something enforced with a mutex,
// since a mutex here would silently serialize a caller bug instead of
// surfacing it.
type Scheduler struct {
	nextFrameID uint64
	bufferSize  uint64

	factories *TaskFactorySet
	cache     *DataCache
	pending   []Task
	frameQ    []*DataItem

	show         bool
	displayDelay time.Duration
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithDisplay enables the show=true on-screen display capability
// (spec §6): released frames implementing Displayable have Display
// called with delay.
func WithDisplay(delay time.Duration) Option {
	return func(s *Scheduler) {
		s.show = true
		s.displayDelay = delay
	}
}

// New constructs a Scheduler with the given sliding-window buffer
// size W (spec §3/§6). bufferSize <= 0 falls back to the spec's
// default of 10.
func New(bufferSize int, opts ...Option) *Scheduler {
	if bufferSize <= 0 {
		bufferSize = 10
	}

	s := &Scheduler{
		bufferSize: uint64(bufferSize),
		factories:  NewTaskFactorySet(),
		cache:      NewDataCache(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterFactory appends factory to the scheduler's TaskFactorySet
// (spec §4.3/§6). Safe to call before ingestion starts or between
// AddFrame calls - never while one is in flight.
func (s *Scheduler) RegisterFactory(factory TaskFactory) {
	s.factories.Register(factory)
}

// NextFrameID reports the frame id the next AddFrame call will use.
func (s *Scheduler) NextFrameID() uint64 { return s.nextFrameID }

// CacheLen reports how many data items are currently cached, mostly
// useful for tests asserting the bounded-memory invariant (spec §8.1).
func (s *Scheduler) CacheLen() int { return s.cache.Len() }

// PendingLen reports how many tasks are still awaiting their inputs.
func (s *Scheduler) PendingLen() int { return len(s.pending) }

// Peek returns the payload cached under (dataType, frameID), if any -
// mainly useful for tests inspecting intermediate products that are
// never themselves released to the diagnostic sink.
func (s *Scheduler) Peek(dataType string, frameID uint64) (any, bool) {
	item, ok := s.cache.Get(DataKey{Type: dataType, FrameID: frameID})
	if !ok {
		return nil, false
	}
	return item.Payload, true
}

// AddFrame ingests one frame of payload, builds that frame's tasks via
// every registered factory, runs the evaluation pass to a fixed
// point, evicts stale state, and releases any ingestion-order-leading
// frames that have no pending task left (spec §4.4, steps 1-6). ctx is
// accepted but not used: AddFrame never reads from it and never
// selects on ctx.Done() mid-pass (spec §5: no suspension points inside
// the scheduler). A fatal error still advances the frame id, so the
// next call ingests a fresh frame.
func (s *Scheduler) AddFrame(ctx context.Context, payload any, sink DiagnosticSink) error {
	_ = ctx
	runID := uuid.New()
	frameID := s.nextFrameID

	frameItem := &DataItem{Type: FrameType, FrameID: frameID, Payload: payload}
	s.cache.Put(frameItem)
	s.frameQ = append(s.frameQ, frameItem)

	log.Emit(logger.DEBUG, "[%s] ingested frame %d, creating tasks\n", runID, frameID)

	newTasks, err := s.factories.CreateAll(frameID)
	if err != nil {
		s.nextFrameID++
		return newFatalError(frameID, err)
	}
	s.pending = append(s.pending, newTasks...)

	if err := s.runEvaluationPass(frameID); err != nil {
		s.nextFrameID++
		return err
	}

	s.evict(frameID)
	s.releaseFrames(sink)

	s.nextFrameID++
	return nil
}

// runEvaluationPass repeatedly scans pending in order, firing every
// task whose inputs are resolved, until a full scan makes no further
// progress (spec §4.4 "Evaluation pass"). Termination is guaranteed
// because every firing (success or staleness eviction) strictly
// shrinks the pending list.
func (s *Scheduler) runEvaluationPass(currentFrameID uint64) error {
	for {
		startLen := len(s.pending)

		kept := s.pending[:0]
		for i, t := range s.pending {
			keep, err := s.tryFire(t, currentFrameID)
			if err != nil {
				// Drop the failed task but keep every task not yet
				// scanned, so the pending list stays consistent.
				s.pending = append(kept, s.pending[i+1:]...)
				return err
			}
			if keep {
				kept = append(kept, t)
			}
		}
		s.pending = kept

		if len(s.pending) == startLen {
			return nil
		}
	}
}

// tryFire is the try-fire predicate from spec §4.4: staleness check,
// then input resolution, then execution. Returns keep=true to leave
// the task pending for a later pass.
func (s *Scheduler) tryFire(t Task, currentFrameID uint64) (keep bool, err error) {
	if currentFrameID > t.FrameID() && currentFrameID-t.FrameID() > s.bufferSize {
		log.Emit(logger.WARNING, "task for frame %d was not executed: exceeded buffer window of %d frames\n", t.FrameID(), s.bufferSize)
		return false, nil
	}

	requested := t.Required()
	payloads := make([]any, 0, len(requested))
	for _, req := range requested {
		if item, ok := s.cache.Get(req.dataKey()); ok {
			s.cache.Touch(req.dataKey())
			payloads = append(payloads, item.Payload)
			continue
		}

		if req.HasDefault {
			payloads = append(payloads, req.Default)
			continue
		}

		// Required input not yet available - leave pending.
		return true, nil
	}

	produced, execErr := s.safeExecute(t, payloads)
	if execErr != nil {
		return false, newFatalError(t.FrameID(), execErr)
	}

	for _, p := range produced {
		s.cache.Put(&DataItem{Type: p.Type, FrameID: p.FrameID, Payload: p.Payload})
	}

	return false, nil
}

// safeExecute runs t.Execute, converting a panic into an error so a
// misbehaving task cannot crash the whole scheduler (spec §7: an
// unexpected error during execution is fatal, but recoverably so).
func (s *Scheduler) safeExecute(t Task, payloads []any) (produced []Produced, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()

	return t.Execute(payloads)
}

// evict drops every cached data item older than the sliding window
// (spec §4.4 step 4). Before the window has filled (currentFrameID <=
// bufferSize) there is nothing to evict yet.
func (s *Scheduler) evict(currentFrameID uint64) {
	if currentFrameID <= s.bufferSize {
		return
	}

	s.cache.EvictOlderThan(currentFrameID-s.bufferSize, log)
}

// releaseFrames hands every leading frame with zero remaining pending
// tasks to the diagnostic sink (and the display capability, if
// enabled), preserving ingestion order (spec §4.4 step 5, "Frame
// release gate").
func (s *Scheduler) releaseFrames(sink DiagnosticSink) {
	for len(s.frameQ) > 0 {
		head := s.frameQ[0]
		if s.remainingTasksFor(head.FrameID) > 0 {
			break
		}

		s.frameQ = s.frameQ[1:]
		s.release(head, sink)
	}
}

func (s *Scheduler) remainingTasksFor(frameID uint64) int {
	count := 0
	for _, t := range s.pending {
		if t.FrameID() == frameID {
			count++
		}
	}
	return count
}

func (s *Scheduler) release(item *DataItem, sink DiagnosticSink) {
	if s.show {
		if d, ok := item.Payload.(Displayable); ok {
			d.Display(s.displayDelay)
		}
	}

	if sink == nil {
		return
	}

	if err := sink(item.Payload, "jpg"); err != nil {
		log.Emit(logger.WARNING, "diagnostic sink failed for released frame %d: %v\n", item.FrameID, err)
	}
}
