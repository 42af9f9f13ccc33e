package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"pickcal/internal/config"
	appLog "pickcal/internal/log"
	"pickcal/internal/web"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var (
		listen string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the picker HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appLog.Info("pickcal starting", "version", version)

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"locale", cfg.Locale,
				"week_start", cfg.FirstWeekday().String(),
				"mode", cfg.Mode,
				"range_start", cfg.Range.Start,
				"range_end", cfg.Range.End,
				"refresh", cfg.RefreshCron,
				"ics_count", len(cfg.ICS),
			)

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			srv := web.NewServer(cfg, debug)

			sched := newRefresher(ctx, srv)
			if err := sched.Schedule(cfg); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			go sched.RunNow()

			stopWatch, err := watchConfigFile(root.configPath, func(next *config.Config) {
				if listen != "" {
					next.Listen = listen
				}
				if next.Listen != cfg.Listen {
					appLog.Info("listen address change needs a restart", "listen", next.Listen)
				}
				if root.logLevel == "" {
					appLog.SetLevel(appLog.ParseLevel(next.LogLevel))
				}
				srv.ApplyConfig(next)
				if err := sched.Schedule(next); err != nil {
					appLog.Error("refresh schedule not updated", err, "refresh", next.RefreshCron)
				}
				go sched.RunNow()
			})
			if err != nil {
				appLog.Error("config watch disabled", err, "config_path", root.configPath)
			} else {
				defer stopWatch()
			}

			err = srv.ListenAndServe(ctx)
			appLog.Info("pickcal exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Use a local ICS cache directory and verbose defaults")
	return cmd
}

// refresher re-reads today and reloads ICS marks on the configured cron
// schedule.
type refresher struct {
	ctx context.Context
	srv *web.Server

	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
	spec  string
	loc   *time.Location
}

func newRefresher(ctx context.Context, srv *web.Server) *refresher {
	return &refresher{ctx: ctx, srv: srv}
}

// Schedule installs cfg's refresh spec, replacing the previous one. The
// scheduler is rebuilt when the timezone changes.
func (r *refresher) Schedule(cfg *config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc := cfg.Location()
	if r.cron != nil && r.spec == cfg.RefreshCron && r.loc.String() == loc.String() {
		return nil
	}

	if _, err := cron.ParseStandard(cfg.RefreshCron); err != nil {
		return err
	}

	if r.cron == nil || r.loc.String() != loc.String() {
		running := r.cron != nil
		if running {
			r.cron.Stop()
		}
		r.cron = cron.New(cron.WithLocation(loc))
		r.loc = loc
		if running {
			r.cron.Start()
		}
	} else {
		r.cron.Remove(r.entry)
	}

	id, err := r.cron.AddFunc(cfg.RefreshCron, r.RunNow)
	if err != nil {
		return err
	}
	r.entry = id
	r.spec = cfg.RefreshCron
	appLog.Info("refresh scheduled", "refresh", cfg.RefreshCron, "timezone", loc.String())
	return nil
}

func (r *refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cron.Start()
}

func (r *refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.mu.Unlock()
	<-c.Stop().Done()
}

// RunNow performs one refresh cycle.
func (r *refresher) RunNow() {
	if r.ctx.Err() != nil {
		return
	}
	r.srv.RefreshToday()
	if err := r.srv.RefreshMarks(r.ctx); err != nil {
		appLog.Error("marks refresh failed", err)
	}
}

// watchConfigFile reloads the config whenever the file is written or
// replaced. The parent directory is watched so editors that save by rename
// are picked up.
func watchConfigFile(path string, apply func(*config.Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				next, err := config.Load(path)
				if err != nil {
					appLog.Error("config reload failed", err, "config_path", path)
					continue
				}
				appLog.Info("config reloaded", "config_path", path)
				apply(next)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				appLog.Error("config watcher error", err)
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
