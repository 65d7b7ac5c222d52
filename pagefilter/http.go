package pagefilter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/adswap/kit"
	"github.com/hazyhaar/adswap/shield"
)

// MaxFilterBody caps POST /filter bodies.
const MaxFilterBody = 10 << 20

// ReplacedHeader carries the replacement count on POST /filter responses.
const ReplacedHeader = "X-Adswap-Replaced"

// Handler returns the HTTP API:
//
//	GET  /health    liveness
//	GET  /sessions  SessionInfo list
//	POST /filter    body: HTML, query url; response: rewritten HTML
func (f *Filter) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultAPIStack(f.logger) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.Sessions())
	})

	r.With(shield.MaxBody(MaxFilterBody)).Post("/filter", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			code := http.StatusBadRequest
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				code = http.StatusRequestEntityTooLarge
			}
			writeError(w, code, err)
			return
		}
		res, err := f.FilterHTML(r.Context(), r.URL.Query().Get("url"), string(body))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		shield.GetLogger(r.Context()).Info("pagefilter: html filtered",
			"transport", kit.GetTransport(r.Context()),
			"replaced", res.Stats.Replaced)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set(ReplacedHeader, strconv.Itoa(res.Stats.Replaced))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, res.HTML)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
