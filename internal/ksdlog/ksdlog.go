// Package ksdlog reads the fixed-format per-minute log files produced by the
// KSD messaging counter: summary files holding per-code totals and
// transaction files holding individual records.
package ksdlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts used inside filenames and transaction records.
const (
	MinuteLayout    = "01021504"       // MMDDHHmm, filename suffix
	TimestampLayout = "20060102150405" // YYYYMMDDHHmmss, transaction field
)

// Direction distinguishes send and receive traffic.
type Direction int

const (
	Send Direction = iota
	Recv
)

// Prefix returns the single-letter filename prefix for the direction.
func (d Direction) Prefix() string {
	if d == Send {
		return "s"
	}
	return "r"
}

func (d Direction) String() string {
	if d == Send {
		return "SEND"
	}
	return "RECV"
}

// MarshalJSON renders the direction using its wire spelling.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ParseDirection accepts the wire spelling (SEND/RECV), the filename prefix
// (s/r) and the lowercase API spelling (send/recv).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "send":
		return Send, nil
	case "r", "recv":
		return Recv, nil
	}
	return Send, fmt.Errorf("unknown direction %q", s)
}

// SummaryRecord is one code:count line from a summary file.
type SummaryRecord struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Transaction is one line from a transaction history file.
type Transaction struct {
	Timestamp  time.Time `json:"timestamp"`
	ResultFile string    `json:"result_file"`
	Code       string    `json:"code"`
	Direction  Direction `json:"direction"`
}

// MinuteKey formats t as the MMDDHHmm filename suffix.
func MinuteKey(t time.Time) string {
	return t.Format(MinuteLayout)
}

// SummaryFileName builds the summary filename for a direction and minute,
// e.g. "s.ksd653.log.10281530".
func SummaryFileName(d Direction, at time.Time) string {
	return fmt.Sprintf("%s.ksd653.log.%s", d.Prefix(), MinuteKey(at))
}

// TranFileName builds the transaction filename for a direction and minute,
// e.g. "r.tran.ksd653.log.10281530".
func TranFileName(d Direction, at time.Time) string {
	return fmt.Sprintf("%s.tran.ksd653.log.%s", d.Prefix(), MinuteKey(at))
}

// ParseSummaryName reports whether name is a summary filename and, if so,
// its direction and MMDDHHmm minute key.
func ParseSummaryName(name string) (Direction, string, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[1] != "ksd653" || parts[2] != "log" {
		return Send, "", false
	}
	d, err := ParseDirection(parts[0])
	if err != nil || len(parts[3]) != len(MinuteLayout) {
		return Send, "", false
	}
	if _, err := time.Parse(MinuteLayout, parts[3]); err != nil {
		return Send, "", false
	}
	return d, parts[3], true
}
