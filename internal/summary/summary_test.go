package summary

import (
	"math"
	"testing"
	"time"

	"ksdmon/internal/codes"
	"ksdmon/internal/ksdlog"
)

func TestAggregateExample(t *testing.T) {
	mtime := time.Date(2024, 10, 28, 15, 30, 12, 0, time.Local)
	report := Aggregate([]ksdlog.SummaryRecord{
		{Code: "631", Count: 150},
		{Code: "632", Count: 200},
	}, codes.Default(), mtime)

	if report.Total != 350 {
		t.Fatalf("total = %d, want 350", report.Total)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("expected total row + 2 rows, got %d", len(report.Rows))
	}

	total := report.Rows[0]
	if total.Code != TotalCode || total.Count != 350 || total.Percentage != 100 {
		t.Fatalf("unexpected total row %+v", total)
	}

	// Busiest code first after the pseudo-row.
	if report.Rows[1].Code != "632" || report.Rows[2].Code != "631" {
		t.Fatalf("rows not sorted by count: %+v", report.Rows[1:])
	}
	if math.Abs(report.Rows[1].Percentage-57.14) > 0.01 {
		t.Fatalf("632 percentage = %f", report.Rows[1].Percentage)
	}
	if math.Abs(report.Rows[2].Percentage-42.86) > 0.01 {
		t.Fatalf("631 percentage = %f", report.Rows[2].Percentage)
	}
	if !report.FileTime.Equal(mtime) {
		t.Fatalf("file time not carried through")
	}
}

func TestAggregatePercentagesSumTo100(t *testing.T) {
	recs := []ksdlog.SummaryRecord{
		{Code: "631", Count: 1}, {Code: "632", Count: 2}, {Code: "633", Count: 3},
		{Code: "634", Count: 5}, {Code: "635", Count: 8}, {Code: "636", Count: 13},
	}
	report := Aggregate(recs, codes.Default(), time.Time{})
	var sum float64
	for _, row := range report.Rows[1:] {
		sum += row.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %f", sum)
	}
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil, codes.Default(), time.Time{})
	if report.Total != 0 || len(report.Rows) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestAggregateZeroTotal(t *testing.T) {
	report := Aggregate([]ksdlog.SummaryRecord{
		{Code: "631", Count: 0},
		{Code: "632", Count: 0},
	}, codes.Default(), time.Time{})
	for _, row := range report.Rows {
		if row.Percentage != 0 {
			t.Fatalf("zero-total percentage should be 0, got %+v", row)
		}
	}
}

func TestAggregateUnknownCode(t *testing.T) {
	report := Aggregate([]ksdlog.SummaryRecord{
		{Code: "999", Count: 10},
	}, codes.Default(), time.Time{})
	if report.Rows[1].Name != codes.Undefined {
		t.Fatalf("unknown code labeled %q", report.Rows[1].Name)
	}
}
