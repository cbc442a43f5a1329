package handle

import (
	"context"
	"net/http"
	"time"
)

// Healthz answers "ok", or 503 when the storage ping fails.
func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Register mounts all endpoints on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/generate", h.GeneratePage)
	mux.HandleFunc("/v1/matrix/generate", h.Generate)
	mux.HandleFunc("/v1/matrix/export", h.Export)
	mux.HandleFunc("/", h.Index)
}

// Routes returns a mux with all endpoints behind RequestLog.
func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return RequestLog(h.log, mux)
}
