package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

type handler struct {
	svc Service
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(mux.Vars(r)["query"])
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	limit, ok := maxParam(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		slog.Error("search failed", "query", query, "err", err)
		writeError(w, statusFor(err), "error searching records")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) record(w http.ResponseWriter, r *http.Request) {
	fileNumber := strings.TrimSpace(mux.Vars(r)["fileNumber"])
	if fileNumber == "" {
		writeError(w, http.StatusBadRequest, "file number is required")
		return
	}

	rec, err := h.svc.Record(r.Context(), fileNumber)
	if err != nil {
		slog.Error("record failed", "file", fileNumber, "err", err)
		writeError(w, statusFor(err), "error extracting record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) crawl(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(mux.Vars(r)["query"])
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	limit, ok := maxParam(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Crawl(r.Context(), query, limit)
	if err != nil {
		slog.Error("crawl failed", "query", query, "err", err)
		writeError(w, statusFor(err), "error crawling records")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// maxParam reads the optional ?max= limit, 0 when absent
func maxParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("max")
	if v == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid max parameter")
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonData, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error marshaling to JSON")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
