// Package summary turns raw summary records into a display-ready report.
package summary

import (
	"sort"
	"time"

	"ksdmon/internal/codes"
	"ksdmon/internal/ksdlog"
)

// TotalCode marks the synthetic total pseudo-row.
const TotalCode = "TOTAL"

const totalLabel = "total volume"

// Row is one aggregated line of the report.
type Row struct {
	Code       string  `json:"code"`
	Name       string  `json:"business_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Report is the aggregated view of one summary file.
type Report struct {
	Rows     []Row     `json:"rows"`
	Total    int       `json:"total"`
	FileTime time.Time `json:"file_time"`
}

// Aggregate computes per-code percentages against the file total, resolves
// business names through table and prepends a TOTAL pseudo-row. Percentages
// over a zero total are reported as 0, and the pseudo-row is omitted when
// there are no records.
func Aggregate(recs []ksdlog.SummaryRecord, table codes.Table, mtime time.Time) Report {
	if len(recs) == 0 {
		return Report{FileTime: mtime}
	}

	total := 0
	for _, rec := range recs {
		total += rec.Count
	}

	rows := make([]Row, 0, len(recs)+1)
	rows = append(rows, Row{
		Code:       TotalCode,
		Name:       totalLabel,
		Count:      total,
		Percentage: percentage(total, total),
	})
	for _, rec := range recs {
		rows = append(rows, Row{
			Code:       rec.Code,
			Name:       table.Lookup(rec.Code),
			Count:      rec.Count,
			Percentage: percentage(rec.Count, total),
		})
	}
	// Keep the pseudo-row first, the rest busiest-first.
	perCode := rows[1:]
	sort.SliceStable(perCode, func(i, j int) bool {
		return perCode[i].Count > perCode[j].Count
	})
	return Report{Rows: rows, Total: total, FileTime: mtime}
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
