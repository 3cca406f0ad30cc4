package ksdlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadSummary(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, SummaryFileName(Send, at), "631:150\n632:200")

	recs, mtime, err := NewReader(dir, false).ReadSummary(Send, at)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Code != "631" || recs[0].Count != 150 {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if recs[1].Code != "632" || recs[1].Count != 200 {
		t.Fatalf("unexpected second record %+v", recs[1])
	}
	if mtime.IsZero() {
		t.Fatalf("expected file mtime")
	}
}

func TestReadSummaryMissingFile(t *testing.T) {
	recs, mtime, err := NewReader(t.TempDir(), false).ReadSummary(Recv, time.Now())
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(recs) != 0 || !mtime.IsZero() {
		t.Fatalf("expected empty result, got %d records", len(recs))
	}
}

func TestReadSummaryMalformedLinePropagates(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, SummaryFileName(Send, at), "631:150\nbogus line\n632:200")

	_, _, err := NewReader(dir, false).ReadSummary(Send, at)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Line != 2 {
		t.Fatalf("expected failure on line 2, got %d", perr.Line)
	}
}

func TestReadSummarySkipMalformed(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, SummaryFileName(Send, at), "631:150\n632:notanumber\n633:abc:90\n634:25")

	r := NewReader(dir, true)
	var skipped int
	r.OnMalformed = func(*ParseError) { skipped++ }

	recs, _, err := r.ReadSummary(Send, at)
	if err != nil {
		t.Fatalf("skip mode must not error: %v", err)
	}
	// "633:abc:90" splits on the first colon, so "abc:90" is a bad count.
	if len(recs) != 2 {
		t.Fatalf("expected 2 good records, got %d", len(recs))
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped lines, got %d", skipped)
	}
}

func TestReadTransactionsBothDirections(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, TranFileName(Send, at),
		"20241028153010:result_0001:631:SEND\n20241028153020:result_0002:632:SEND")
	writeFile(t, dir, TranFileName(Recv, at),
		"20241028153015:result_0003:633:RECV")

	recs, err := NewReader(dir, false).ReadTransactions(at, at, nil)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected union of both files (3), got %d", len(recs))
	}
	sends, recvs := 0, 0
	for _, rec := range recs {
		switch rec.Direction {
		case Send:
			sends++
		case Recv:
			recvs++
		}
	}
	if sends != 2 || recvs != 1 {
		t.Fatalf("direction not preserved: %d send, %d recv", sends, recvs)
	}
	want := time.Date(2024, 10, 28, 15, 30, 10, 0, time.UTC)
	if !recs[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp parsed as %v, want %v", recs[0].Timestamp, want)
	}
}

func TestReadTransactionsDirectionFilter(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, TranFileName(Send, at), "20241028153010:result_0001:631:SEND")
	writeFile(t, dir, TranFileName(Recv, at), "20241028153015:result_0002:633:RECV")

	filter := Recv
	recs, err := NewReader(dir, false).ReadTransactions(at, at, &filter)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(recs) != 1 || recs[0].Direction != Recv {
		t.Fatalf("expected only recv records, got %+v", recs)
	}
}

func TestReadTransactionsRangeSpansMinutes(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	third := first.Add(2 * time.Minute)
	writeFile(t, dir, TranFileName(Send, first), "20241028153005:result_0001:631:SEND")
	// No file for the middle minute: absence is normal, not an error.
	writeFile(t, dir, TranFileName(Send, third), "20241028153250:result_0002:635:SEND")

	recs, err := NewReader(dir, false).ReadTransactions(first, third, nil)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records across the range, got %d", len(recs))
	}
}

func TestReadTransactionsEmptyRange(t *testing.T) {
	recs, err := NewReader(t.TempDir(), false).ReadTransactions(
		time.Date(2024, 10, 28, 0, 0, 0, 0, time.Local),
		time.Date(2024, 10, 28, 23, 59, 0, 0, time.Local), nil)
	if err != nil {
		t.Fatalf("expected no error for missing files: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty result, got %d", len(recs))
	}
}

func TestReadTransactionsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	writeFile(t, dir, TranFileName(Send, at), "20241028153010:too:many:fields:SEND")

	_, err := NewReader(dir, false).ReadTransactions(at, at, nil)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
