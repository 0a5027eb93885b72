package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"myfocus/internal/ai"
	"myfocus/internal/classify"
	"myfocus/internal/event"
	"myfocus/internal/intervene"
	"myfocus/internal/model"
	"myfocus/internal/monitor"
	"myfocus/internal/ocr"
	"myfocus/internal/probe"
	"myfocus/internal/report"
	"myfocus/internal/screen"
	"myfocus/internal/storage"
	"myfocus/internal/timer"
)

func newCheckCmd(configPath *string, verbose *bool) *cobra.Command {
	var testBackend bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one classification cycle and print the result",
		RunE: func(c *cobra.Command, _ []string) error {
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			client := ai.NewClient(cfg.AI, log)

			if testBackend {
				result := client.TestConnection(c.Context())
				_, _ = fmt.Fprintf(c.OutOrStdout(), "%s: %s (%s)\n",
					cfg.AI.APIType, result.Message, result.ResponseTime)
				if !result.Success {
					os.Exit(1)
				}
				return nil
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

			scheduler := monitor.New(monitor.Deps{
				Log:        log,
				Probe:      activityProbe,
				Capturer:   capturer,
				OCR:        ocr.New(log),
				Classifier: classify.New(client, log),
				Sink:       event.Discard{},
				Store:      store,
			}, cfg.Monitoring, cfg.Intervention)

			result, err := scheduler.TriggerManualCheck(c.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(c.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&testBackend, "backend", false, "test the AI backend connection instead")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's focus statistics",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now().UTC()
			dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			results, err := store.LoadResults(dayStart)
			if err != nil {
				return err
			}

			stats := report.ComputeTodayStats(results, now, cfg.Monitoring.IntervalMinutes)
			w := c.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Checks today:      %d\n", stats.TotalChecks)
			_, _ = fmt.Fprintf(w, "Focus time:        %s\n", formatDuration(stats.TotalFocusSeconds))
			_, _ = fmt.Fprintf(w, "Distraction time:  %s\n", formatDuration(stats.TotalDistractSeconds))
			_, _ = fmt.Fprintf(w, "Interruptions:     %d\n", stats.InterruptionCount)
			_, _ = fmt.Fprintf(w, "Focus score:       %d/100\n", stats.FocusScore)
			return nil
		},
	}
}

func newFocusCmd(configPath *string, verbose *bool) *cobra.Command {
	var breakSession bool

	cmd := &cobra.Command{
		Use:   "focus [minutes]",
		Short: "Run a foreground focus session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			sessionType := model.SessionFocus
			minutes := cfg.Timer.FocusMinutes
			if breakSession {
				sessionType = model.SessionShortBreak
				minutes = cfg.Timer.ShortBreakMinutes
			}
			if len(args) == 1 {
				if _, err := fmt.Sscanf(args[0], "%d", &minutes); err != nil || minutes <= 0 {
					return fmt.Errorf("invalid duration %q", args[0])
				}
			}

			taskID := ""
			if tasks, err := store.LoadTasks(); err == nil {
				if t := model.CurrentTask(tasks); t != nil {
					taskID = t.ID
					_, _ = fmt.Fprintf(c.OutOrStdout(), "Working on: %s\n", t.Title)
				}
			}

			tm := timer.New(log)
			session, err := tm.Start(sessionType, minutes, taskID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.OutOrStdout(), "%s session started: %d minutes (Ctrl-C to cancel)\n",
				session.SessionType, minutes)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			completed := true
			select {
			case <-time.After(time.Duration(minutes) * time.Minute):
			case <-ctx.Done():
				completed = false
			}

			done, err := tm.Stop(completed)
			if err != nil {
				return err
			}
			if err := store.SaveSession(done); err != nil {
				log.Warnw("save session failed", "error", err)
			}

			notifier := intervene.NewDesktopNotifier()
			if completed {
				_ = notifier.Notify("专注计时", "本次专注已完成，休息一下吧。", false, 10)
				_, _ = fmt.Fprintf(c.OutOrStdout(), "Session complete: %s\n", formatDuration(done.ElapsedSeconds))
			} else {
				_, _ = fmt.Fprintf(c.OutOrStdout(), "Session cancelled after %s\n", formatDuration(done.ElapsedSeconds))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&breakSession, "break", false, "run a short break instead of a focus session")
	return cmd
}

func newTaskCmd(configPath *string) *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage tasks"}

	openStore := func() (*storage.Store, error) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		return storage.New(cfg.DataDir)
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			t := model.NewTask(args[0])
			if err := store.SaveTask(t); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.OutOrStdout(), "added %s (%s)\n", t.Title, t.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(c *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.LoadTasks()
			if err != nil {
				return err
			}
			for _, t := range tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				_, _ = fmt.Fprintf(c.OutOrStdout(), "[%s] %s  %s\n", mark, t.ID, t.Title)
			}
			return nil
		},
	}

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.LoadTasks()
			if err != nil {
				return err
			}
			for _, t := range tasks {
				if t.ID == args[0] {
					t.Completed = true
					t.UpdatedAt = time.Now().UTC()
					if err := store.SaveTask(t); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.OutOrStdout(), "done %s\n", t.Title)
					return nil
				}
			}
			return fmt.Errorf("no task with id %s", args[0])
		},
	}

	task.AddCommand(addCmd, listCmd, doneCmd)
	return task
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
