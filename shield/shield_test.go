package shield

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/adswap/kit"
)

func stackRouter(h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	for _, mw := range DefaultAPIStack(nil) {
		r.Use(mw)
	}
	r.Get("/health", h)
	return r
}

func TestDefaultAPIStack(t *testing.T) {
	var gotID, gotTransport string
	h := stackRouter(func(w http.ResponseWriter, r *http.Request) {
		gotID = kit.GetRequestID(r.Context())
		gotTransport = kit.GetTransport(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("no request logger")
		}
		w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotID == "" || rec.Header().Get(RequestIDHeader) != gotID {
		t.Errorf("request id: ctx %q, header %q", gotID, rec.Header().Get(RequestIDHeader))
	}
	if gotTransport != "http" {
		t.Errorf("transport: got %q", gotTransport)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff missing")
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Security-Policy"), "sandbox") {
		t.Errorf("csp: got %q", rec.Header().Get("Content-Security-Policy"))
	}
}

func TestDefaultAPIStack_HeadUsesGetRoute(t *testing.T) {
	var gotMethod string
	h := stackRouter(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotMethod != http.MethodHead {
		t.Errorf("method: got %s", gotMethod)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status: got %d", rec.Code)
	}
}

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(8)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) {
		t.Errorf("expected MaxBytesError, got %v", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	if readErr != nil {
		t.Errorf("small body: %v", readErr)
	}
}
