// Package ingest captures summary files into the snapshot store. Captures
// are triggered by the directory watcher, the periodic ticker and manual
// backfill, and all funnel through the same code path.
package ingest

import (
	"context"
	"fmt"
	"time"

	"ksdmon/internal/codes"
	"ksdmon/internal/ksdlog"
	"ksdmon/internal/metrics"
	"ksdmon/internal/store"
	"ksdmon/internal/summary"
)

// Capturer reads a summary file, aggregates it and persists the result.
type Capturer struct {
	reader  *ksdlog.Reader
	table   codes.Table
	store   *store.Store
	metrics *metrics.Metrics
}

func New(reader *ksdlog.Reader, table codes.Table, st *store.Store, m *metrics.Metrics) *Capturer {
	return &Capturer{reader: reader, table: table, store: st, metrics: m}
}

// CaptureFile captures a summary file by name. Non-summary filenames are
// rejected; a file that vanished before the read is a no-op.
func (c *Capturer) CaptureFile(ctx context.Context, name string) error {
	d, minuteKey, ok := ksdlog.ParseSummaryName(name)
	if !ok {
		return fmt.Errorf("not a summary file: %s", name)
	}
	err := c.capture(ctx, d, minuteKey, name)
	c.metrics.RecordCapture(err)
	return err
}

// Capture captures the summary file for a direction and minute.
func (c *Capturer) Capture(ctx context.Context, d ksdlog.Direction, at time.Time) error {
	return c.CaptureFile(ctx, ksdlog.SummaryFileName(d, at))
}

func (c *Capturer) capture(ctx context.Context, d ksdlog.Direction, minuteKey, name string) error {
	recs, mtime, err := c.reader.ReadSummaryNamed(name)
	if err != nil {
		return fmt.Errorf("capture %s: %w", name, err)
	}
	if len(recs) == 0 {
		return nil
	}
	report := summary.Aggregate(recs, c.table, mtime)

	now := time.Now().UTC().Truncate(time.Second)
	rows := make([]store.Snapshot, 0, len(report.Rows))
	for _, row := range report.Rows {
		if row.Code == summary.TotalCode {
			continue // totals are derived from the per-code rows
		}
		rows = append(rows, store.Snapshot{
			Direction:    d.String(),
			MinuteKey:    minuteKey,
			Code:         row.Code,
			BusinessName: row.Name,
			Count:        row.Count,
			Percentage:   row.Percentage,
			FileMtime:    mtime,
			CapturedAt:   now,
		})
	}
	if err := c.store.InsertSnapshot(ctx, rows); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}
