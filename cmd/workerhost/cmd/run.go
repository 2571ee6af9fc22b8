package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/worker-host/config"
	"github.com/wippyai/worker-host/engine"
	"github.com/wippyai/worker-host/host"
	"github.com/wippyai/worker-host/metrics"
	"github.com/wippyai/worker-host/worker"
)

var watchConfig bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the workers declared in the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHost(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&watchConfig, "watch", false, "hot-reload the configuration file on change")
	rootCmd.AddCommand(runCmd)
}

func runHost(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(cfgFile)
	if err != nil {
		return err
	}
	cfg := watcher.Config()

	var rec *metrics.Recorder
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				worker.Logger().Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		worker.Logger().Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
	}

	s := &session{
		host: host.New(host.Options{
			Factory: engine.NewFactory(),
			Permissions: host.StaticPermissions{
				AllowRead: cfg.AllowRead,
				ReadAll:   cfg.ReadAll,
				Unstable:  cfg.Unstable,
			},
			Metrics: rec,
		}),
	}

	if err := s.launch(ctx, cfg); err != nil {
		return err
	}

	if watchConfig {
		watcher.OnChange(func(old, updated *config.Config) {
			worker.Logger().Info("configuration changed, restarting workers",
				zap.String("path", cfgFile))
			s.terminateAll()
			if err := s.launch(ctx, updated); err != nil {
				worker.Logger().Error("relaunch after reload failed", zap.Error(err))
			}
		})
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	<-ctx.Done()
	worker.Logger().Info("shutting down")
	s.terminateAll()
	s.wg.Wait()
	return nil
}

// session tracks the workers launched from configuration so a reload or a
// shutdown can terminate exactly the workers it started.
type session struct {
	host *host.Host
	wg   sync.WaitGroup

	mu  sync.Mutex
	ids []uint32
}

func (s *session) launch(ctx context.Context, cfg *config.Config) error {
	for _, def := range cfg.Workers {
		id, err := s.host.CreateWorker(ctx, host.CreateWorkerArgs{
			Name:                   def.Name,
			Specifier:              def.Specifier,
			UsePrivilegedNamespace: def.Privileged,
			ImportMap:              def.ImportMap,
		})
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.ids = append(s.ids, id)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.pump(ctx, id, def.Name)
	}
	return nil
}

// pump drains one worker's events into the log until the worker ends. The
// host reclaims the worker on terminal error or clean closure, so the pump
// just stops.
func (s *session) pump(ctx context.Context, id uint32, name string) {
	defer s.wg.Done()
	log := worker.Logger().With(zap.Uint32("id", id), zap.String("name", name))
	for {
		msg, err := s.host.GetMessage(ctx, id)
		if err != nil {
			if ctx.Err() == nil {
				log.Debug("event pump stopped", zap.Error(err))
			}
			return
		}
		switch msg.Type {
		case host.TypeMsg:
			log.Info("worker message", zap.Int("bytes", len(msg.Data)))
		case host.TypeError:
			log.Warn("worker error", zap.String("message", msg.Error.Message),
				zap.String("file", msg.Error.FileName),
				zap.Uint32("line", msg.Error.LineNumber))
		case host.TypeTerminalError:
			log.Error("worker died", zap.String("message", msg.Error.Message))
			return
		case host.TypeClose:
			log.Info("worker completed")
			return
		}
	}
}

func (s *session) terminateAll() {
	s.mu.Lock()
	ids := s.ids
	s.ids = nil
	s.mu.Unlock()
	for _, id := range ids {
		s.host.TerminateWorker(id)
	}
}
