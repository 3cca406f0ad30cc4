// Package gen writes synthetic summary and transaction log files. It exists
// to produce fixture data for manual testing and package tests; it is not
// part of the production data path.
package gen

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ksdmon/internal/ksdlog"
)

// TransactionsPerFile is how many records each generated transaction file holds.
const TransactionsPerFile = 20

type codeCount struct {
	code  string
	count int
}

// Hand-picked counts, one set per direction.
var (
	sendCounts = []codeCount{
		{"631", 150}, {"632", 200}, {"633", 180}, {"634", 120}, {"635", 90},
		{"636", 110}, {"637", 85}, {"638", 95}, {"639", 75}, {"640", 60},
	}
	recvCounts = []codeCount{
		{"631", 145}, {"632", 195}, {"633", 175}, {"634", 115}, {"635", 85},
		{"636", 105}, {"637", 80}, {"638", 90}, {"639", 70}, {"640", 55},
	}
)

// Generator writes fixture files for a single minute into a directory.
type Generator struct {
	dir string
	rng *rand.Rand
}

// New returns a Generator writing into dir. A nil rng gets a time-seeded one.
func New(dir string, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{dir: dir, rng: rng}
}

// Generate writes summary and transaction files for both directions for the
// minute containing at, and returns the created filenames.
func (g *Generator) Generate(at time.Time) ([]string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	minute := at.Truncate(time.Minute)
	var created []string
	for _, d := range []ksdlog.Direction{ksdlog.Send, ksdlog.Recv} {
		name, err := g.writeSummary(d, minute)
		if err != nil {
			return created, err
		}
		created = append(created, name)
		name, err = g.writeTransactions(d, minute)
		if err != nil {
			return created, err
		}
		created = append(created, name)
	}
	return created, nil
}

func (g *Generator) writeSummary(d ksdlog.Direction, minute time.Time) (string, error) {
	counts := sendCounts
	if d == ksdlog.Recv {
		counts = recvCounts
	}
	lines := make([]string, 0, len(counts))
	for _, cc := range counts {
		lines = append(lines, fmt.Sprintf("%s:%d", cc.code, cc.count))
	}
	name := ksdlog.SummaryFileName(d, minute)
	return name, g.writeFile(name, lines)
}

func (g *Generator) writeTransactions(d ksdlog.Direction, minute time.Time) (string, error) {
	lines := make([]string, 0, TransactionsPerFile)
	for i := 0; i < TransactionsPerFile; i++ {
		ts := minute.Add(time.Duration(g.rng.Intn(60)) * time.Second)
		code := fmt.Sprintf("63%d", 1+g.rng.Intn(9))
		lines = append(lines, fmt.Sprintf("%s:result_%04d:%s:%s",
			ts.Format(ksdlog.TimestampLayout), i, code, d))
	}
	sort.Strings(lines)
	name := ksdlog.TranFileName(d, minute)
	return name, g.writeFile(name, lines)
}

func (g *Generator) writeFile(name string, lines []string) error {
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
