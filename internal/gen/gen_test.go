package gen

import (
	"math/rand"
	"testing"
	"time"

	"ksdmon/internal/ksdlog"
)

func TestGenerateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	g := New(dir, rand.New(rand.NewSource(1)))

	created, err := g.Generate(at)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("expected 4 files, got %d: %v", len(created), created)
	}

	reader := ksdlog.NewReader(dir, false)
	for _, d := range []ksdlog.Direction{ksdlog.Send, ksdlog.Recv} {
		recs, mtime, err := reader.ReadSummary(d, at)
		if err != nil {
			t.Fatalf("%v summary read back: %v", d, err)
		}
		if len(recs) != 10 {
			t.Fatalf("%v summary: expected 10 codes, got %d", d, len(recs))
		}
		if mtime.IsZero() {
			t.Fatalf("%v summary: missing mtime", d)
		}

		filter := d
		txns, err := reader.ReadTransactions(at, at, &filter)
		if err != nil {
			t.Fatalf("%v transactions read back: %v", d, err)
		}
		if len(txns) != TransactionsPerFile {
			t.Fatalf("%v transactions: expected %d, got %d", d, TransactionsPerFile, len(txns))
		}
		for _, txn := range txns {
			if txn.Direction != d {
				t.Fatalf("direction mismatch in %v file: %+v", d, txn)
			}
			if txn.Code < "631" || txn.Code > "639" {
				t.Fatalf("code out of range: %q", txn.Code)
			}
		}
	}
}

func TestGenerateTruncatesToMinute(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 10, 28, 15, 30, 45, 123, time.Local)
	if _, err := New(dir, rand.New(rand.NewSource(7))).Generate(at); err != nil {
		t.Fatalf("generate: %v", err)
	}

	recs, _, err := ksdlog.NewReader(dir, false).ReadSummary(ksdlog.Send, at)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) == 0 {
		t.Fatalf("summary file not found under minute-truncated name")
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	at := time.Date(2024, 10, 28, 15, 30, 0, 0, time.Local)
	read := func(dir string) []ksdlog.Transaction {
		t.Helper()
		if _, err := New(dir, rand.New(rand.NewSource(42))).Generate(at); err != nil {
			t.Fatalf("generate: %v", err)
		}
		txns, err := ksdlog.NewReader(dir, false).ReadTransactions(at, at, nil)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return txns
	}

	a := read(t.TempDir())
	b := read(t.TempDir())
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
