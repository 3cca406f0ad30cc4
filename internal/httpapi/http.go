// Package httpapi serves the monitoring API consumed by the dashboard.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ksdmon/internal/codes"
	"ksdmon/internal/config"
	"ksdmon/internal/ksdlog"
	"ksdmon/internal/metrics"
	"ksdmon/internal/queue"
	"ksdmon/internal/store"
	"ksdmon/internal/summary"
)

// queryTimeLayout is the minute-precision layout accepted by the API.
const queryTimeLayout = "200601021504"

// Router builds HTTP handlers for /api and /ops.
type Router struct {
	cfg     config.Config
	reader  *ksdlog.Reader
	table   codes.Table
	store   *store.Store
	metrics *metrics.Metrics
	queue   *queue.Queue
	rescan  func() (int, error)
	now     func() time.Time
}

func NewRouter(cfg config.Config, reader *ksdlog.Reader, table codes.Table, st *store.Store, m *metrics.Metrics, q *queue.Queue, rescan func() (int, error)) *Router {
	return &Router{
		cfg:     cfg,
		reader:  reader,
		table:   table,
		store:   st,
		metrics: m,
		queue:   q,
		rescan:  rescan,
		now:     time.Now,
	}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/summary", r.summary)
	mux.HandleFunc("/api/transactions", r.transactions)
	mux.HandleFunc("/api/history/codes", r.codeHistory)
	mux.HandleFunc("/api/snapshots", r.snapshots)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/backfill", r.backfill)
}

// WithRequestID stamps every response with an X-Request-ID header.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req)
	})
}

func (r *Router) summary(w http.ResponseWriter, req *http.Request) {
	d, err := ksdlog.ParseDirection(req.URL.Query().Get("direction"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	at := r.now()
	if v := req.URL.Query().Get("at"); v != "" {
		at, err = time.ParseInLocation(queryTimeLayout, v, time.Local)
		if err != nil {
			http.Error(w, "bad at: want YYYYMMDDHHmm", http.StatusBadRequest)
			return
		}
	}
	recs, mtime, err := r.reader.ReadSummary(d, at)
	if err != nil {
		respondReadError(w, err)
		return
	}
	r.metrics.IncSummaryRead()
	report := summary.Aggregate(recs, r.table, mtime)
	respondJSON(w, map[string]any{
		"direction": d.String(),
		"minute":    ksdlog.MinuteKey(at),
		"report":    report,
	})
}

func (r *Router) transactions(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	start, err := time.ParseInLocation(queryTimeLayout, q.Get("start"), time.Local)
	if err != nil {
		http.Error(w, "bad start: want YYYYMMDDHHmm", http.StatusBadRequest)
		return
	}
	end, err := time.ParseInLocation(queryTimeLayout, q.Get("end"), time.Local)
	if err != nil {
		http.Error(w, "bad end: want YYYYMMDDHHmm", http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		http.Error(w, "end before start", http.StatusBadRequest)
		return
	}
	var filter *ksdlog.Direction
	if v := q.Get("direction"); v != "" {
		d, err := ksdlog.ParseDirection(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter = &d
	}
	recs, err := r.reader.ReadTransactions(start, end, filter)
	if err != nil {
		respondReadError(w, err)
		return
	}
	r.metrics.IncTransactionRead()
	type txnView struct {
		ksdlog.Transaction
		BusinessName string `json:"business_name"`
	}
	views := make([]txnView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, txnView{Transaction: rec, BusinessName: r.table.Lookup(rec.Code)})
	}
	respondJSON(w, map[string]any{"count": len(views), "transactions": views})
}

func (r *Router) codeHistory(w http.ResponseWriter, req *http.Request) {
	hours := 24
	if v := req.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad hours", http.StatusBadRequest)
			return
		}
		hours = n
	}
	since := r.now().UTC().Add(-time.Duration(hours) * time.Hour)
	totals, err := r.store.CodeTotals(req.Context(), since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"since": since, "totals": totals})
}

func (r *Router) snapshots(w http.ResponseWriter, req *http.Request) {
	limit := 100
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := r.store.ListSnapshots(req.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, list)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, map[string]any{
		"data_dir": r.cfg.DataDir,
		"metrics":  r.metrics.Snapshot(),
		"queue":    r.queue.Stats(),
		"codes":    r.table.Len(),
	})
}

func (r *Router) backfill(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := r.rescan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"enqueued": n})
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondReadError maps reader failures to responses: corrupt data and I/O
// faults both surface as 500, tagged so callers can tell them apart.
func respondReadError(w http.ResponseWriter, err error) {
	kind := "io"
	var perr *ksdlog.ParseError
	if errors.As(err, &perr) {
		kind = "parse"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "kind": kind})
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
