package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hbomb79/vtm/internal/config"
	"github.com/hbomb79/vtm/internal/diagnostic"
	"github.com/hbomb79/vtm/internal/ingest"
	"github.com/hbomb79/vtm/internal/scheduler"
	"github.com/hbomb79/vtm/internal/tasks"
	"github.com/hbomb79/vtm/pkg/logger"
)

const VERSION = 1.0

var (
	log = logger.Get("Bootstrap")

	configFlag = flag.String("config", "./config.toml", "The path to the config file vtm will load")
	helpFlag   = flag.Bool("help", false, "Whether to display help information")
)

func main() {
	flag.Parse()

	if *helpFlag {
		flag.Usage()
		return
	}

	log.Emit(logger.DEBUG, "loading configuration from %q\n", *configFlag)
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Emit(logger.FATAL, "failed to load configuration: %v\n", err)
		return
	}
	logger.SetMinLevel(logger.DebugLevelToLevel(cfg.DebugLevel))

	if err := run(cfg); err != nil {
		log.Emit(logger.FATAL, "vtm exited with error: %v\n", err)
		return
	}

	log.Emit(logger.STOP, "vtm shutdown complete\n")
}

func run(cfg *config.SchedulerConfig) error {
	log.Emit(logger.INFO, " --- Starting vtm (version %.1f) ---\n", VERSION)

	ctx, ctxCancel := context.WithCancel(context.Background())
	go listenForInterrupt(ctxCancel)

	sink, err := diagnostic.New(cfg.Diagnostic)
	if err != nil {
		return fmt.Errorf("failed to construct diagnostic sink: %w", err)
	}
	defer sink.Close()

	var opts []scheduler.Option
	if cfg.Show {
		opts = append(opts, scheduler.WithDisplay(0))
	}

	sched := scheduler.New(cfg.BufferSize, opts...)
	sched.RegisterFactory(tasks.NewIdentityFactory())
	sched.RegisterFactory(tasks.NewGrayscaleFactory())
	sched.RegisterFactory(tasks.NewDeltaFactory())
	sched.RegisterFactory(tasks.NewThumbnailFactory())

	source, err := ingest.New(cfg.Ingest, func(ctx context.Context, payload any) error {
		return sched.AddFrame(ctx, payload, sink.Receive)
	})
	if err != nil {
		return fmt.Errorf("failed to construct ingest source: %w", err)
	}

	return source.Run(ctx)
}

func listenForInterrupt(ctxCancel context.CancelFunc) {
	exitChannel := make(chan os.Signal, 1)
	signal.Notify(exitChannel, os.Interrupt, syscall.SIGTERM)

	<-exitChannel
	ctxCancel()
}
