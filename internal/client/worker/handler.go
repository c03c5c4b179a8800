package worker

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/posmart/internal/client/reconcile"
)

// Handler routes the gateway:
//
//	GET  /ws          page connection
//	POST /sync/{tag}  fire a background-sync tag
//	*    /...         proxied to the asset origin
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", w.serveWebSocket)
	mux.HandleFunc("POST /sync/{tag}", w.serveSync)
	mux.Handle("/", w.proxy)
	return w.recoverer(mux)
}

func (w *Worker) serveSync(rw http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")

	err := w.sync.Fire(r.Context(), tag)
	switch {
	case err == nil:
		rw.WriteHeader(http.StatusNoContent)
	case errors.Is(err, reconcile.ErrUnknownTag):
		http.Error(rw, err.Error(), http.StatusNotFound)
	default:
		w.logger.Warn(r.Context(), "sync request failed", "tag", tag, "error", err)
		http.Error(rw, "sync failed", http.StatusServiceUnavailable)
	}
}

func (w *Worker) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				w.logger.Error(r.Context(), "handler panicked", "path", r.URL.Path, "panic", p)
				http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
