// Package ingest is the demo program's frame source: it watches a
// directory for new image files the way the teacher's ingest service
// watches for new media files, using notify for filesystem events, and
// turns each discovered file into a frame delivered to a single
// Scheduler.AddFrame call. Reading files happens concurrently (up to
// Config.Parallelism workers); dispatching them to the scheduler is
// always serialized onto one goroutine, since the scheduler may never
// be called from two goroutines at once (spec §5).
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rjeczalik/notify"

	"github.com/hbomb79/vtm/internal/config"
	"github.com/hbomb79/vtm/internal/frame"
	"github.com/hbomb79/vtm/pkg/logger"
	"github.com/hbomb79/vtm/pkg/worker"
)

var log = logger.Get("ingest")

// Dispatcher is the single serialization point a Source feeds
// discovered frames through - ordinarily Scheduler.AddFrame, bound to
// a particular sink by the caller.
type Dispatcher func(ctx context.Context, payload any) error

// Source watches a directory tree for new files and dispatches each as
// a frame. Within a batch, frames are dispatched in the order their
// reads complete, not in filesystem-discovery order.
type Source struct {
	cfg        config.IngestConfig
	blacklist  []*regexp.Regexp
	dispatch   Dispatcher
	knownPaths map[string]bool
}

// New constructs a Source for cfg.Path, compiling cfg.Blacklist as
// regular expressions the way the teacher's ingestService matches
// blacklisted filenames.
func New(cfg config.IngestConfig, dispatch Dispatcher) (*Source, error) {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}

	if info, err := os.Stat(cfg.Path); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("ingest path %q is not a directory", cfg.Path)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("ingest path %q could not be created: %w", cfg.Path, err)
		}
	} else {
		return nil, fmt.Errorf("ingest path %q could not be accessed: %w", cfg.Path, err)
	}

	compiled := make([]*regexp.Regexp, 0, len(cfg.Blacklist))
	for _, pattern := range cfg.Blacklist {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ingest blacklist pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}

	return &Source{
		cfg:        cfg,
		blacklist:  compiled,
		dispatch:   dispatch,
		knownPaths: make(map[string]bool),
	}, nil
}

// Run blocks, watching cfg.Path for new files and dispatching each
// discovered, non-blacklisted file as a frame, until ctx is cancelled.
func (s *Source) Run(ctx context.Context) error {
	events := make(chan notify.EventInfo, 32)
	if err := notify.Watch(filepath.Join(s.cfg.Path, "..."), events, notify.Create, notify.Write); err != nil {
		return fmt.Errorf("failed to watch ingest path %q: %w", s.cfg.Path, err)
	}
	defer notify.Stop(events)

	if err := s.discover(ctx); err != nil {
		log.Emit(logger.WARNING, "initial ingest discovery failed: %v\n", err)
	}

	for {
		select {
		case ev := <-events:
			if err := s.handle(ctx, ev.Path()); err != nil {
				log.Emit(logger.WARNING, "failed to ingest %s: %v\n", ev.Path(), err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// discover walks cfg.Path once, ingesting every file not already known
// - used for the startup sweep, since the watcher only reports changes
// from the moment it is installed.
func (s *Source) discover(ctx context.Context) error {
	var paths []string
	err := filepath.WalkDir(s.cfg.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk ingest path: %w", err)
	}

	return s.ingestPaths(ctx, paths)
}

// ingestPaths reads each path concurrently (bounded by
// cfg.Parallelism workers) but hands every resulting frame to the
// dispatcher one at a time, in the order the workers finish.
func (s *Source) ingestPaths(ctx context.Context, paths []string) error {
	type result struct {
		payload *frame.Frame
		err     error
	}

	results := make(chan result, len(paths))
	pool := worker.NewPool()

	// Pool launches one goroutine per pushed worker with no cap of its
	// own, so Parallelism is enforced here via a counting semaphore
	// each read worker must acquire before touching disk.
	sem := make(chan struct{}, s.cfg.Parallelism)

	for _, path := range paths {
		path := path
		if s.isKnown(path) || s.isBlacklisted(path) {
			continue
		}

		readWorker := worker.New(fmt.Sprintf("ingest-read-%s", filepath.Base(path)), worker.TaskFunc(func(worker.Worker) error {
			sem <- struct{}{}
			defer func() { <-sem }()

			payload, err := readFrame(path)
			results <- result{payload: payload, err: err}
			return nil
		}))
		if err := pool.Push(readWorker); err != nil {
			return fmt.Errorf("failed to queue ingest read for %q: %w", path, err)
		}
	}

	if err := pool.Start(); err != nil {
		return fmt.Errorf("failed to start ingest read pool: %w", err)
	}
	pool.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			log.Emit(logger.WARNING, "failed to read ingest file: %v\n", r.err)
			continue
		}

		if err := s.dispatch(ctx, r.payload); err != nil {
			return fmt.Errorf("dispatch failed: %w", err)
		}
	}

	return nil
}

func (s *Source) handle(ctx context.Context, path string) error {
	return s.ingestPaths(ctx, []string{path})
}

func (s *Source) isKnown(path string) bool {
	if s.knownPaths[path] {
		return true
	}
	s.knownPaths[path] = true
	return false
}

func (s *Source) isBlacklisted(path string) bool {
	for _, re := range s.blacklist {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func readFrame(path string) (*frame.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return frame.New(0, 0, data), nil
}
