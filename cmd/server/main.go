package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"time"

	"go-jobboard-scraper/internal/api"
	"go-jobboard-scraper/internal/app"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/scheduler"
	"go-jobboard-scraper/pkg/logging"
	"go-jobboard-scraper/pkg/shutdown"

	"github.com/gin-gonic/gin"
)

// server stops the scheduler, then HTTP, then closes storage.
type server struct {
	http   *http.Server
	sched  *scheduler.Scheduler
	app    *app.App
	cancel context.CancelFunc
}

func (s *server) Shutdown(ctx context.Context) error {
	// interrupts scheduled runs; collected postings are still saved
	s.cancel()
	if s.sched != nil {
		s.sched.Stop(ctx)
	}
	err := s.http.Shutdown(ctx)
	return errors.Join(err, s.app.Close())
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.New("development", "info").Error("❌ Failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("❌ Failed to initialize", "error", err)
		os.Exit(1)
	}

	refresh := app.RefreshParams(cfg)
	h := api.NewHandler(a.Runner, a.Store, refresh, log)

	srv := &server{
		http: &http.Server{
			Addr:        cfg.GetServerAddr(),
			Handler:     api.NewRouter(h, log),
			IdleTimeout: time.Minute,
			ReadTimeout: 10 * time.Second,
			// scrape requests hold the connection for the whole run
			WriteTimeout: 0,
		},
		app:    a,
		cancel: cancel,
	}

	if cfg.Schedule.Enabled {
		srv.sched = scheduler.New(cfg.Schedule.Interval, refresh, a.Runner, log)
		if err := srv.sched.Start(ctx); err != nil {
			log.Error("❌ Failed to start scheduler", "error", err)
			_ = a.Close()
			_ = log.Sync()
			os.Exit(1)
		}
	}

	go func() {
		log.Info("🚀 Server listening", "addr", srv.http.Addr)
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("❌ Server failed", "error", err)
			os.Exit(1)
		}
	}()

	shutdown.Graceful([]os.Signal{os.Interrupt, syscall.SIGTERM}, srv, cfg.Server.ShutdownTimeout, log)
}
