// Package app wires the monitor's components together.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ksdmon/internal/codes"
	"ksdmon/internal/config"
	"ksdmon/internal/httpapi"
	"ksdmon/internal/ingest"
	"ksdmon/internal/ksdlog"
	"ksdmon/internal/metrics"
	"ksdmon/internal/queue"
	"ksdmon/internal/store"
	"ksdmon/internal/watch"
)

// App holds the wired service.
type App struct {
	cfg      config.Config
	store    *store.Store
	queue    *queue.Queue
	capturer *ingest.Capturer
	watcher  *watch.Watcher
	metrics  *metrics.Metrics
	mux      *http.ServeMux
	logFile  *os.File
}

func New(cfg config.Config) (*App, error) {
	logFile, err := setupLogging(cfg.LogDir)
	if err != nil {
		return nil, err
	}

	table, err := codes.Load(cfg.CodesPath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	m := metrics.New()
	reader := ksdlog.NewReader(cfg.DataDir, cfg.SkipMalformed)
	reader.OnMalformed = func(perr *ksdlog.ParseError) {
		m.IncMalformed()
		log.Printf("skipping malformed line %v", perr)
	}

	q := queue.New(cfg.QueueSize, cfg.WorkerCount, time.Duration(cfg.JobTimeoutSec)*time.Second)
	capturer := ingest.New(reader, table, st, m)
	watcher := watch.New(cfg, q, capturer)

	mux := http.NewServeMux()
	router := httpapi.NewRouter(cfg, reader, table, st, m, q, func() (int, error) {
		return watcher.Backfill(context.Background())
	})
	router.Register(mux)

	return &App{
		cfg:      cfg,
		store:    st,
		queue:    q,
		capturer: capturer,
		watcher:  watcher,
		metrics:  m,
		mux:      mux,
		logFile:  logFile,
	}, nil
}

// Run starts workers, watcher, the capture ticker and the HTTP server, and
// blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.queue.Start(ctx)
	if err := a.watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if n, err := a.watcher.Backfill(ctx); err != nil {
		log.Printf("startup backfill: %v", err)
	} else if n > 0 {
		log.Printf("startup backfill enqueued %d files", n)
	}
	go a.captureLoop(ctx)

	srv := &http.Server{Addr: ":" + a.cfg.HTTPPort, Handler: httpapi.WithRequestID(a.mux)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		a.queue.Stop(shutdownCtx)
	}()
	log.Printf("http listening on :%s", a.cfg.HTTPPort)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close releases the store and log file.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// Mux exposes the handler for tests.
func (a *App) Mux() *http.ServeMux { return a.mux }

// captureLoop periodically captures the current minute for both directions.
func (a *App) captureLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.cfg.CaptureIntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for _, d := range []ksdlog.Direction{ksdlog.Send, ksdlog.Recv} {
				dir := d
				a.queue.Enqueue(queue.Job{
					ID:     ksdlog.SummaryFileName(dir, now),
					Source: "ticker",
					Work: func(jobCtx context.Context) error {
						return a.capturer.Capture(jobCtx, dir, now)
					},
				})
			}
		}
	}
}

// setupLogging tees the standard logger to stderr and logs/ksdmon.log.
func setupLogging(logDir string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "ksdmon.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	return f, nil
}
