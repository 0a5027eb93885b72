package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"myfocus/internal/ai"
	"myfocus/internal/classify"
	"myfocus/internal/config"
	"myfocus/internal/event"
	"myfocus/internal/intervene"
	"myfocus/internal/monitor"
	"myfocus/internal/ocr"
	"myfocus/internal/probe"
	"myfocus/internal/screen"
	"myfocus/internal/storage"
)

func newDaemonCmd(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the monitoring daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon(*configPath, *verbose)
		},
	}
}

func runDaemon(configPath string, verbose bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	activityProbe, err := probe.Detect()
	if err != nil {
		return err
	}
	capturer, err := screen.Detect()
	if err != nil {
		return err
	}
	log.Infow("capture backends selected", "probe", activityProbe.Name(), "screen", capturer.Name())

	socket := event.NewSocketServer(filepath.Join(cfg.DataDir, "myfocus.sock"), log)
	if err := socket.Start(); err != nil {
		log.Warnw("event socket unavailable", "error", err)
	} else {
		defer socket.Stop()
	}
	sink := event.NewFanout(socket)

	client := ai.NewClient(cfg.AI, log)
	manager := intervene.NewManager(log, intervene.NewDesktopNotifier(), sink)

	scheduler := monitor.New(monitor.Deps{
		Log:        log,
		Probe:      activityProbe,
		Capturer:   capturer,
		OCR:        ocr.New(log),
		Classifier: classify.New(client, log),
		Sink:       sink,
		Store:      store,
		Intervener: manager,
	}, cfg.Monitoring, cfg.Intervention)

	scheduler.Start()
	defer scheduler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// pick up config edits without a restart
	watcher, err := config.NewWatcher(configPath, log)
	if err != nil {
		log.Warnw("config watcher unavailable", "error", err)
	} else {
		go watcher.Run(ctx, func(next *config.Config) {
			if err := scheduler.UpdateConfig(next.Monitoring); err != nil {
				log.Warnw("rejected config change", "error", err)
				return
			}
			scheduler.UpdateInterventionConfig(next.Intervention)
		})
	}

	log.Infow("daemon started", "data_dir", cfg.DataDir, "monitoring_enabled", cfg.Monitoring.Enabled)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	return nil
}
