package ksdlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseError describes a malformed line in a log file. Missing files are not
// errors at all; ParseError lets callers tell corrupt data apart from plain
// I/O failures.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// Reader locates and parses summary and transaction files under a single
// data directory. A missing file is a normal "not yet produced" condition
// and yields an empty result.
type Reader struct {
	dir           string
	skipMalformed bool

	// OnMalformed is invoked for each line skipped in skip-malformed mode.
	OnMalformed func(*ParseError)
}

// NewReader returns a Reader over dir. When skipMalformed is true a bad line
// is dropped (reported via OnMalformed) instead of failing the whole read.
func NewReader(dir string, skipMalformed bool) *Reader {
	return &Reader{dir: dir, skipMalformed: skipMalformed}
}

// ReadSummary reads the summary file for the given direction and minute.
// A missing file returns (nil, zero time, nil). On success the file's
// modification time is returned alongside the records.
func (r *Reader) ReadSummary(d Direction, at time.Time) ([]SummaryRecord, time.Time, error) {
	return r.ReadSummaryNamed(SummaryFileName(d, at))
}

// ReadSummaryNamed reads a summary file by its exact filename within the
// data directory.
func (r *Reader) ReadSummaryNamed(name string) ([]SummaryRecord, time.Time, error) {
	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open summary %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat summary %s: %w", name, err)
	}

	var records []SummaryRecord
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, perr := parseSummaryLine(name, lineNo, line)
		if perr != nil {
			if r.skip(perr) {
				continue
			}
			return nil, time.Time{}, perr
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("read summary %s: %w", name, err)
	}
	return records, info.ModTime(), nil
}

// ReadTransactions collects transaction records for every whole minute in
// [start, end]. With a nil filter both directions are read. Per-minute files
// that do not exist are skipped silently; record order follows file and line
// order.
func (r *Reader) ReadTransactions(start, end time.Time, filter *Direction) ([]Transaction, error) {
	dirs := []Direction{Send, Recv}
	if filter != nil {
		dirs = []Direction{*filter}
	}

	var out []Transaction
	last := end.Truncate(time.Minute)
	for cur := start.Truncate(time.Minute); !cur.After(last); cur = cur.Add(time.Minute) {
		for _, d := range dirs {
			recs, err := r.readTranFile(TranFileName(d, cur))
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
	}
	return out, nil
}

func (r *Reader) readTranFile(name string) ([]Transaction, error) {
	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open transactions %s: %w", name, err)
	}
	defer f.Close()

	var out []Transaction
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, perr := parseTranLine(name, lineNo, line)
		if perr != nil {
			if r.skip(perr) {
				continue
			}
			return nil, perr
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transactions %s: %w", name, err)
	}
	return out, nil
}

func (r *Reader) skip(perr *ParseError) bool {
	if !r.skipMalformed {
		return false
	}
	if r.OnMalformed != nil {
		r.OnMalformed(perr)
	}
	return true
}

func parseSummaryLine(file string, lineNo int, line string) (SummaryRecord, *ParseError) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return SummaryRecord{}, &ParseError{File: file, Line: lineNo, Reason: "expected code:count"}
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil {
		return SummaryRecord{}, &ParseError{File: file, Line: lineNo, Reason: fmt.Sprintf("bad count %q", parts[1])}
	}
	if count < 0 {
		return SummaryRecord{}, &ParseError{File: file, Line: lineNo, Reason: fmt.Sprintf("negative count %d", count)}
	}
	return SummaryRecord{Code: parts[0], Count: count}, nil
}

func parseTranLine(file string, lineNo int, line string) (Transaction, *ParseError) {
	parts := strings.Split(line, ":")
	if len(parts) != 4 {
		return Transaction{}, &ParseError{File: file, Line: lineNo, Reason: fmt.Sprintf("expected 4 fields, got %d", len(parts))}
	}
	ts, err := time.Parse(TimestampLayout, parts[0])
	if err != nil {
		return Transaction{}, &ParseError{File: file, Line: lineNo, Reason: fmt.Sprintf("bad timestamp %q", parts[0])}
	}
	d, err := ParseDirection(parts[3])
	if err != nil {
		return Transaction{}, &ParseError{File: file, Line: lineNo, Reason: fmt.Sprintf("bad direction %q", parts[3])}
	}
	return Transaction{Timestamp: ts, ResultFile: parts[1], Code: parts[2], Direction: d}, nil
}
