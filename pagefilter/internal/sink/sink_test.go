package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/adswap/dbopen"
	"github.com/hazyhaar/adswap/report"
)

func sampleReplacement(id, ref string) report.Replacement {
	return report.Replacement{
		ID: id, PageID: "p1", PageURL: "https://example.com",
		Selector: ".adsbygoogle", Ref: ref, Width: 300, Height: 250, FontSize: 24,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestStdout_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	ctx := context.Background()
	s.SendReplacement(ctx, sampleReplacement("r1", "Psalm 23:1"))
	s.SendSnapshot(ctx, report.Snapshot{ID: "s1", PageID: "p1"})

	sc := bufio.NewScanner(&buf)
	var types []string
	for sc.Scan() {
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			t.Fatal(err)
		}
		types = append(types, env.Type)
	}
	if len(types) != 2 || types[0] != "replacement" || types[1] != "snapshot" {
		t.Errorf("types: got %v", types)
	}
}

func TestRouter_FanOutJoinsErrors(t *testing.T) {
	var got atomic.Int32
	ok := NewCallback(func(context.Context, report.Replacement) error {
		got.Add(1)
		return nil
	}, nil)
	boom := errors.New("boom")
	bad := NewCallback(func(context.Context, report.Replacement) error { return boom }, nil)

	r := NewRouter(nil, bad, ok, ok)
	err := r.SendReplacement(context.Background(), sampleReplacement("r1", "x"))
	if !errors.Is(err, boom) {
		t.Errorf("err: got %v", err)
	}
	if got.Load() != 2 {
		t.Errorf("delivered: got %d, want 2", got.Load())
	}
	if err := r.SendSnapshot(context.Background(), report.Snapshot{}); err != nil {
		t.Errorf("nil snapshot handlers: %v", err)
	}
}

func TestRouter_LogsFailureContext(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	boom := errors.New("boom")
	bad := NewCallback(
		func(context.Context, report.Replacement) error { return boom },
		func(context.Context, report.Snapshot) error { return boom },
	)
	r := NewRouter(logger, NewStdout(io.Discard), bad)

	err := r.SendReplacement(context.Background(), sampleReplacement("r9", "John 3:16"))
	if err == nil || !strings.Contains(err.Error(), "callback: boom") {
		t.Fatalf("err: got %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("one log line expected: %v\n%s", err, logs.String())
	}
	want := map[string]any{
		"msg": "sink: send replacement failed", "sink": "callback", "page_id": "p1",
		"ref": "John 3:16", "selector": ".adsbygoogle", "replacement_id": "r9",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}

	logs.Reset()
	r.SendSnapshot(context.Background(), report.Snapshot{PageID: "p2", HTMLHash: "abc"})
	if !strings.Contains(logs.String(), `"html_hash":"abc"`) || !strings.Contains(logs.String(), `"page_id":"p2"`) {
		t.Errorf("snapshot log: %s", logs.String())
	}
}

func TestRouter_JoinsEveryFailure(t *testing.T) {
	e1, e2 := errors.New("first"), errors.New("second")
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewCallback(func(context.Context, report.Replacement) error { return e1 }, nil),
		NewCallback(func(context.Context, report.Replacement) error { return e2 }, nil),
	)
	err := r.SendReplacement(context.Background(), sampleReplacement("r1", "x"))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("err: got %v", err)
	}
}

func TestWebhook_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte(`"type":"replacement"`)) {
			t.Errorf("body: %s", body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookBackoff(time.Millisecond))
	if err := w.SendReplacement(context.Background(), sampleReplacement("r1", "x")); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls: got %d, want 3", calls.Load())
	}
}

func TestWebhook_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookRetries(1), WithWebhookBackoff(time.Millisecond))
	if err := w.SendSnapshot(context.Background(), report.Snapshot{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSQLite_ReplacementsAndCounts(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLite(db)
	ctx := context.Background()

	for i, ref := range []string{"A", "A", "B"} {
		if err := s.SendReplacement(ctx, sampleReplacement(string(rune('a'+i)), ref)); err != nil {
			t.Fatal(err)
		}
	}
	counts, err := s.CountByRef(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if counts["A"] != 2 || counts["B"] != 1 {
		t.Errorf("counts: got %v", counts)
	}
	if counts, _ := s.CountByRef(ctx, "other"); len(counts) != 0 {
		t.Errorf("other page: got %v", counts)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Ping(); err != nil {
		t.Error("Close closed a borrowed database")
	}
}

func TestSQLite_SnapshotDedup(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLite(db)
	ctx := context.Background()

	html := []byte("<html></html>")
	snap := report.Snapshot{ID: "s1", PageID: "p1", HTML: html, HTMLHash: report.HashHTML(html), Timestamp: 1}
	s.SendSnapshot(ctx, snap)
	snap.ID, snap.Timestamp = "s2", 2
	s.SendSnapshot(ctx, snap)

	var n int
	db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&n)
	if n != 1 {
		t.Errorf("snapshots: got %d, want 1", n)
	}
}
