package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// buildHandler wires all REST and SSE routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path", "POST /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", gw.handleRoot)
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /api/status", gw.handleStatus)

	// Severity codec
	mux.HandleFunc("GET /api/severities", gw.handleListSeverities)
	mux.HandleFunc("GET /api/severities/{value}", gw.handleGetSeverity)

	// Reports
	mux.HandleFunc("GET /api/reports", gw.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", gw.handleGetReport)
	mux.HandleFunc("PUT /api/reports/{id}/review", gw.handleSetReview)
	mux.HandleFunc("GET /api/runs", gw.handleListRuns)
	mux.HandleFunc("POST /api/import", gw.handleImport)

	// Server-Sent Events stream
	mux.HandleFunc("GET /events", gw.handleEvents)

	return mux
}

func (gw *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   "ctrlreport gateway",
		"status": "running",
		"endpoints": []string{
			"GET /health",
			"GET /api/status",
			"GET /api/severities",
			"GET /api/severities/{value}",
			"GET /api/reports",
			"GET /api/reports/{id}",
			"PUT /api/reports/{id}/review",
			"GET /api/runs",
			"POST /api/import",
			"GET /events",
		},
	})
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gw.currentStatus())
}

// handleListSeverities lists every defined severity, most severe first.
func (gw *Gateway) handleListSeverities(w http.ResponseWriter, r *http.Request) {
	all := models.Severities()
	out := make([]severityView, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, viewOf(all[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetSeverity resolves a numeric code to its label or a label to its
// code. Unknown values answer 404 carrying the codec's sentinel.
func (gw *Gateway) handleGetSeverity(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("value")
	if code, err := strconv.Atoi(raw); err == nil {
		s := models.Severity(code)
		if label := s.String(); label != "" {
			writeJSON(w, http.StatusOK, viewOf(s))
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":  code,
			"label": "",
			"error": fmt.Sprintf("unknown severity code %d", code),
		})
		return
	}
	s := models.SeverityFromString(raw)
	if s == models.SeverityInvalid {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":  int(models.SeverityInvalid),
			"label": raw,
			"error": fmt.Sprintf("unknown severity label %q", raw),
		})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

type reportListResponse struct {
	paginationResult[models.Report]
	Facets *reports.Facets `json:"facets"`
}

func (gw *Gateway) handleListReports(w http.ResponseWriter, r *http.Request) {
	f, err := parseReportFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := parsePaginationParams(r, 50, 500)
	f.Limit = p.PageSize
	f.Offset = p.Offset

	items, total, err := reports.List(r.Context(), gw.db, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	facets, err := reports.BuildFacets(r.Context(), gw.db, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reportListResponse{
		paginationResult: newPage(items, p, total),
		Facets:           facets,
	})
}

// parseReportFilter maps query parameters onto a ReportFilter. Severity
// labels are matched case-insensitively; an unknown one is an error.
func parseReportFilter(r *http.Request) (models.ReportFilter, error) {
	q := r.URL.Query()
	var f models.ReportFilter

	sevs, err := reports.ParseSeverityFilter(q.Get("severity"))
	if err != nil {
		return f, err
	}
	f.Severities = sevs
	if v := strings.TrimSpace(q.Get("min_severity")); v != "" {
		minSev, err := models.ParseSeverity(v)
		if err != nil {
			return f, err
		}
		f.MinSeverity = &minSev
	}

	f.Analyzer = strings.TrimSpace(q.Get("analyzer"))
	f.Checker = strings.TrimSpace(q.Get("checker"))
	f.PathContains = strings.TrimSpace(q.Get("path"))
	f.RunName = strings.TrimSpace(q.Get("run"))
	f.Query = strings.TrimSpace(q.Get("q"))
	f.Detection = strings.ToLower(strings.TrimSpace(q.Get("detection")))
	if v := strings.ToLower(strings.TrimSpace(q.Get("review_status"))); v != "" {
		if !models.ValidReviewStatus(v) {
			return f, fmt.Errorf("invalid review_status %q", v)
		}
		f.ReviewStatus = v
	}

	f.SortBy = strings.ToLower(strings.TrimSpace(q.Get("sort")))
	if !reports.ValidSortField(f.SortBy) {
		return f, fmt.Errorf("invalid sort %q (valid: severity, file, checker, detected)", f.SortBy)
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "asc":
	case "desc":
		f.Descending = true
	default:
		return f, fmt.Errorf("invalid order %q (valid: asc, desc)", q.Get("order"))
	}
	// Severity listings read most-severe-first unless told otherwise.
	if (f.SortBy == "" || f.SortBy == "severity") && q.Get("order") == "" {
		f.Descending = true
	}
	return f, nil
}

func (gw *Gateway) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := reports.Get(r.Context(), gw.db, id)
	if errors.Is(err, reports.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (gw *Gateway) handleSetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.ReviewStatus))
	if !models.ValidReviewStatus(status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid review_status %q", req.ReviewStatus))
		return
	}
	rep, err := reports.SetReviewStatus(r.Context(), gw.db, id, status)
	if errors.Is(err, reports.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gw.broadcaster.send(SSEEvent{Type: "review.updated", Payload: map[string]any{
		"id":            rep.ID,
		"review_status": rep.ReviewStatus,
		"severity":      rep.Severity.String(),
	}})
	writeJSON(w, http.StatusOK, rep)
}

func (gw *Gateway) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := reports.Runs(r.Context(), gw.db)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (gw *Gateway) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	run := firstNonEmpty(req.Run, gw.cfg.Import.DefaultRun, "default")

	summary, err := gw.runImport(r.Context(), path, run, "api")
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (gw *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if behind a proxy

	ch, cancel := gw.broadcaster.subscribe()
	defer cancel()

	connected, _ := json.Marshal(SSEEvent{Type: "connected", Payload: gw.currentStatus()})
	_, _ = w.Write(sseFrame(connected))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
