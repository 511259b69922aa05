// Package worker provides a small fixed-size pool of goroutines used
// to run blocking, concurrency-safe jobs (diagnostic exports, ingest
// file reads) outside of the scheduler's single-threaded core - the
// scheduler itself never uses this package internally (spec §5
// forbids the core from running tasks in parallel), but the demo
// program wires it in front of the diagnostic sink and frame source.
package worker

import "github.com/hbomb79/vtm/pkg/logger"

var log = logger.Get("worker")

type Status int

const (
	Sleeping Status = iota
	Working
	Finished
)

// TaskMeta is a unit of work a Worker runs in its own goroutine. It
// should loop, pulling jobs from whatever source it was constructed
// with, and return once that source is exhausted/closed.
type TaskMeta interface {
	Execute(Worker) error
}

// TaskFunc adapts a plain function to TaskMeta, for one-shot jobs that
// don't need their own named type.
type TaskFunc func(Worker) error

func (f TaskFunc) Execute(w Worker) error { return f(w) }

// Worker exposes the bookkeeping a Pool needs; most callers only
// construct one via New and never call these methods directly.
type Worker interface {
	Start()
	Status() Status
	Label() string
	Close()
}

type taskWorker struct {
	label  string
	task   TaskMeta
	status Status
}

// New creates a Worker that will run task.Execute when started.
func New(label string, task TaskMeta) Worker {
	return &taskWorker{label: label, task: task, status: Sleeping}
}

func (w *taskWorker) Start() {
	log.Emit(logger.NEW, "worker %q starting\n", w.label)
	w.status = Working
	if err := w.task.Execute(w); err != nil {
		log.Emit(logger.ERROR, "worker %q reported error: %v\n", w.label, err)
	}
	w.status = Finished
	log.Emit(logger.STOP, "worker %q stopped\n", w.label)
}

func (w *taskWorker) Status() Status { return w.status }
func (w *taskWorker) Label() string  { return w.label }
func (w *taskWorker) Close()         {}
