// Package diagnostic is the demo program's DiagnosticSink: it receives
// every frame the scheduler releases, decodes its export metadata the
// way the teacher decodes generic map payloads via mapstructure, and
// hands the write to a small worker pool, so a slow disk blocks the
// scheduler's own goroutine only once the bounded job queue is full.
package diagnostic

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/hbomb79/vtm/internal/config"
	"github.com/hbomb79/vtm/pkg/logger"
	vtmsync "github.com/hbomb79/vtm/pkg/sync"
	"github.com/hbomb79/vtm/pkg/worker"
)

var log = logger.Get("diagnostic")

// ExportMetadata is the optional, generic per-frame metadata a
// released payload may carry alongside its raw bytes; Sink decodes it
// with mapstructure rather than a type assertion, so callers can pass
// a plain map[string]any without importing this package.
type ExportMetadata struct {
	Label string
	Tags  []string
}

// Exportable is implemented by release payloads that want to
// contribute their own bytes and metadata to the sink, rather than
// relying on the default Stringer/raw-bytes fallback.
type Exportable interface {
	ExportBytes() ([]byte, error)
	ExportMeta() map[string]any
}

// Sink adapts a directory and worker pool into a
// scheduler.DiagnosticSink: each call queues an export job, returning
// immediately once the job is queued rather than once it is written.
type Sink struct {
	cfg      config.DiagnosticConfig
	pool     *worker.Pool
	jobs     chan exportJob
	inFlight vtmsync.TypedMap[string, bool]
}

type exportJob struct {
	payload   any
	formatTag string
}

// New constructs a Sink writing under cfg.OutputDir using
// cfg.Workers concurrent export workers.
func New(cfg config.DiagnosticConfig) (*Sink, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diagnostic output dir %q: %w", cfg.OutputDir, err)
	}

	s := &Sink{
		cfg:  cfg,
		pool: worker.NewPool(),
		jobs: make(chan exportJob, cfg.Workers*4),
	}

	for i := 0; i < cfg.Workers; i++ {
		label := fmt.Sprintf("diagnostic-worker-%d", i)
		w := worker.New(label, worker.TaskFunc(s.drainJobs))
		if err := s.pool.Push(w); err != nil {
			return nil, fmt.Errorf("failed to push diagnostic worker: %w", err)
		}
	}

	if err := s.pool.Start(); err != nil {
		return nil, fmt.Errorf("failed to start diagnostic worker pool: %w", err)
	}

	return s, nil
}

// Receive implements the scheduler.DiagnosticSink signature: it queues
// payload for asynchronous export under formatTag and returns
// immediately, applying backpressure only if every worker is already
// behind (the jobs channel is bounded, not unbounded).
func (s *Sink) Receive(payload any, formatTag string) error {
	s.jobs <- exportJob{payload: payload, formatTag: formatTag}
	return nil
}

// Close stops accepting new jobs and waits for every queued export to
// finish.
func (s *Sink) Close() {
	close(s.jobs)
	s.pool.Wait()
}

func (s *Sink) drainJobs(w worker.Worker) error {
	for job := range s.jobs {
		if err := s.export(job); err != nil {
			log.Emit(logger.WARNING, "export failed: %v\n", err)
		}
	}
	return nil
}

func (s *Sink) export(job exportJob) error {
	data, meta, err := extract(job.payload)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("frame_%s.%s", sanitize(meta.Label), job.formatTag)
	path := filepath.Join(s.cfg.OutputDir, name)

	if _, alreadyWriting := s.inFlight.LoadOrStore(name, true); alreadyWriting {
		log.Emit(logger.WARNING, "export %s already in flight on another worker - overwriting\n", name)
	}
	defer s.inFlight.Delete(name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}

	log.Emit(logger.DEBUG, "exported %s (%d bytes, tags=%v)\n", path, len(data), meta.Tags)
	return nil
}

func extract(payload any) ([]byte, ExportMetadata, error) {
	if e, ok := payload.(Exportable); ok {
		data, err := e.ExportBytes()
		if err != nil {
			return nil, ExportMetadata{}, fmt.Errorf("failed to export payload bytes: %w", err)
		}

		var meta ExportMetadata
		if err := mapstructure.Decode(e.ExportMeta(), &meta); err != nil {
			return nil, ExportMetadata{}, fmt.Errorf("failed to decode export metadata: %w", err)
		}
		return data, meta, nil
	}

	return []byte(fmt.Sprintf("%v", payload)), ExportMetadata{Label: "unlabeled"}, nil
}

func sanitize(label string) string {
	if label == "" {
		return "unlabeled"
	}

	out := make([]rune, 0, len(label))
	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
