// Package watch monitors the data directory for newly produced summary
// files and enqueues capture jobs for them.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"

	"ksdmon/internal/config"
	"ksdmon/internal/ingest"
	"ksdmon/internal/ksdlog"
	"ksdmon/internal/queue"
)

// Watcher turns filesystem events into snapshot capture jobs.
type Watcher struct {
	cfg      config.Config
	q        *queue.Queue
	capturer *ingest.Capturer
}

func New(cfg config.Config, q *queue.Queue, capturer *ingest.Capturer) *Watcher {
	return &Watcher{cfg: cfg, q: q, capturer: capturer}
}

// Start begins watching the data directory. Disabled watchers are a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher {
		log.Println("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
					w.enqueue(filepath.Base(evt.Name))
				}
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(w.cfg.DataDir)
}

// Backfill enqueues captures for summary files already present in the data
// directory, most recent minute keys first, bounded by the configured limit.
func (w *Watcher) Backfill(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, _, ok := ksdlog.ParseSummaryName(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	// MMDDHHmm keys sort chronologically within a year.
	sort.Slice(names, func(i, j int) bool {
		_, ki, _ := ksdlog.ParseSummaryName(names[i])
		_, kj, _ := ksdlog.ParseSummaryName(names[j])
		return ki > kj
	})
	if len(names) > w.cfg.BackfillLimit {
		names = names[:w.cfg.BackfillLimit]
	}
	enqueued := 0
	for _, name := range names {
		if w.enqueue(name) {
			enqueued++
		}
	}
	return enqueued, nil
}

func (w *Watcher) enqueue(name string) bool {
	if _, _, ok := ksdlog.ParseSummaryName(name); !ok {
		return false
	}
	file := name
	return w.q.Enqueue(queue.Job{
		ID:     file,
		Source: "watch",
		Work: func(ctx context.Context) error {
			return w.capturer.CaptureFile(ctx, file)
		},
	})
}
