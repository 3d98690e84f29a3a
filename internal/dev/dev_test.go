package dev

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/inactive/internal/build"
	"github.com/vango-dev/inactive/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// touch moves a file's modification time into the future so that a poll
// sees it as modified regardless of file system timestamp resolution.
func touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatcher_Poll(t *testing.T) {
	tmpDir := t.TempDir()
	static := filepath.Join(tmpDir, "public")
	mainFile := filepath.Join(tmpDir, "main.go")
	cssFile := filepath.Join(static, "a.css")
	writeFile(t, mainFile, "package main")
	writeFile(t, cssFile, "body{}")

	watcher := NewWatcher(WatcherConfig{
		Paths:     []string{tmpDir},
		StaticDir: static,
	})

	if got := watcher.Poll(); got != nil {
		t.Fatalf("first poll reported %v", got)
	}

	touch(t, mainFile)
	pngFile := filepath.Join(static, "b.png")
	writeFile(t, pngFile, "png")
	if err := os.Remove(cssFile); err != nil {
		t.Fatal(err)
	}

	var reported []Change
	watcher.OnChange(func(c []Change) { reported = c })
	changes := watcher.Poll()
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	want := []Change{
		{Path: mainFile, Type: ChangeSource},
		{Path: cssFile, Type: ChangeStatic, Removed: true},
		{Path: pngFile, Type: ChangeStatic},
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Path < want[j].Path })

	if len(changes) != len(want) {
		t.Fatalf("changes = %+v, want %+v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
	if len(reported) != len(want) {
		t.Errorf("callback got %d changes, want %d", len(reported), len(want))
	}

	if got := watcher.Poll(); len(got) != 0 {
		t.Errorf("quiet poll reported %v", got)
	}
}

func TestWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "app.go")
	writeFile(t, testFile, "package main")

	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{tmpDir},
		Interval: 20 * time.Millisecond,
	})

	changes := make(chan []Change, 10)
	watcher.OnChange(func(c []Change) { changes <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.Start(ctx)
	waitFor(t, watcher.IsRunning)
	time.Sleep(50 * time.Millisecond)

	touch(t, testFile)

	select {
	case batch := <-changes:
		if batch[0].Path != testFile || batch[0].Type != ChangeSource {
			t.Errorf("change = %+v", batch[0])
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for change")
	}

	watcher.Stop()
	if watcher.IsRunning() {
		t.Error("watcher should be stopped")
	}
}

func TestWatcher_Ignore(t *testing.T) {
	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "dist")
	writeFile(t, filepath.Join(tmpDir, "main.go"), "package main")

	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{tmpDir},
		Ignore: append(append([]string(nil), DefaultIgnore...), "vendor", "gen/*.go", output),
	})
	watcher.Poll()

	writeFile(t, filepath.Join(tmpDir, "foo_test.go"), "package main")
	writeFile(t, filepath.Join(tmpDir, "node_modules", "x.js"), "")
	writeFile(t, filepath.Join(tmpDir, "vendor", "lib.go"), "")
	writeFile(t, filepath.Join(tmpDir, "gen", "a.go"), "")
	writeFile(t, filepath.Join(output, "app.wasm"), "")
	writeFile(t, filepath.Join(tmpDir, ".git", "HEAD"), "")

	if got := watcher.Poll(); len(got) != 0 {
		t.Errorf("ignored files reported: %+v", got)
	}

	writeFile(t, filepath.Join(tmpDir, "attempt.go"), "package main")
	if got := watcher.Poll(); len(got) != 1 {
		t.Errorf("changes = %+v, want attempt.go only", got)
	}
}

func TestWatcher_IgnoreIsRelativeToRoot(t *testing.T) {
	// A watch root below a directory named like an ignore pattern must
	// still be watched.
	tmpDir := filepath.Join(t.TempDir(), "tmp", "project")
	writeFile(t, filepath.Join(tmpDir, "main.go"), "package main")

	watcher := NewWatcher(WatcherConfig{Paths: []string{tmpDir}})
	watcher.Poll()
	writeFile(t, filepath.Join(tmpDir, "other.go"), "package main")

	if got := watcher.Poll(); len(got) != 1 {
		t.Errorf("changes = %+v, want one", got)
	}
}

func TestClassify(t *testing.T) {
	w := NewWatcher(WatcherConfig{StaticDir: "/p/public"})
	tests := []struct {
		path string
		want ChangeType
	}{
		{"/p/main.go", ChangeSource},
		{"/p/go.mod", ChangeSource},
		{"/p/public/app.css", ChangeStatic},
		{"/p/public/img/a.png", ChangeStatic},
		{"/p/publicity/x.go", ChangeSource},
		{"/p/inactive.json", ChangeConfig},
		{"/p/inactive.yaml", ChangeConfig},
	}
	for _, tt := range tests {
		if got := w.classify(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCollectWatchPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.New()
	cfg.Dev.Watch = []string{".", "public", "/abs/dir"}
	if err := cfg.SaveTo(filepath.Join(tmpDir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	got := CollectWatchPaths(cfg)
	want := []string{
		filepath.Join(tmpDir, "public"),
		filepath.Join(tmpDir, config.ConfigFileName),
		tmpDir,
		filepath.Clean("/abs/dir"),
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("CollectWatchPaths = %v, want %v", got, want)
	}

	ignore := CollectIgnore(cfg)
	if ignore[len(ignore)-1] != filepath.Join(tmpDir, "dist") {
		t.Errorf("CollectIgnore should end with the output dir, got %v", ignore)
	}
}

func dialReload(t *testing.T, rs *ReloadServer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestReloadServer_Broadcast(t *testing.T) {
	rs := NewReloadServer(discardLogger())
	counts := make(chan int, 10)
	rs.OnClientsChanged = func(n int) { counts <- n }

	conn := dialReload(t, rs)
	waitFor(t, func() bool { return rs.ClientCount() == 1 })
	if n := <-counts; n != 1 {
		t.Errorf("OnClientsChanged(%d), want 1", n)
	}

	rs.NotifyReload()
	if msg := readMessage(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("msg = %+v, want reload", msg)
	}

	rs.NotifyCSS("/site.css")
	if msg := readMessage(t, conn); msg.Type != ReloadTypeCSS || msg.File != "/site.css" {
		t.Errorf("msg = %+v, want css /site.css", msg)
	}

	rs.NotifyError("boom")
	if msg := readMessage(t, conn); msg.Type != ReloadTypeError || msg.Error != "boom" {
		t.Errorf("msg = %+v, want error boom", msg)
	}

	rs.ClearError()
	if msg := readMessage(t, conn); msg.Type != ReloadTypeClear {
		t.Errorf("msg = %+v, want clear", msg)
	}

	conn.Close()
	waitFor(t, func() bool { return rs.ClientCount() == 0 })
}

func TestReloadServer_ReplaysLastError(t *testing.T) {
	rs := NewReloadServer(discardLogger())
	rs.NotifyError("main.go:1:1: broken")

	conn := dialReload(t, rs)
	if msg := readMessage(t, conn); msg.Type != ReloadTypeError || msg.Error != "main.go:1:1: broken" {
		t.Errorf("msg = %+v, want replayed error", msg)
	}

	rs.Close()
	if rs.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close", rs.ClientCount())
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	for _, p := range []string{"/", "/", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.ObserveBuild(true, 2*time.Second)
	m.ObserveBuild(false, time.Second)
	m.SetReloadClients(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	body := rec.Body.String()

	for _, want := range []string{
		`inactive_dev_requests_total{code="200",method="GET"} 2`,
		`inactive_dev_requests_total{code="404",method="GET"} 1`,
		`inactive_dev_builds_total{result="success"} 1`,
		`inactive_dev_builds_total{result="failure"} 1`,
		`inactive_dev_build_duration_seconds_count 2`,
		`inactive_dev_reload_clients 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q\n%s", want, body)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveBuild(true, time.Second)
	m.SetReloadClients(1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if h := m.Middleware(next); h == nil {
		t.Error("Middleware on nil Metrics should return next")
	}
}

func TestTrace_PassesThrough(t *testing.T) {
	h := Trace(noop.NewTracerProvider().Tracer("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, string) {
	t.Helper()
	projectDir := t.TempDir()
	cfg := config.New()
	cfg.Dev.Metrics = true
	cfg.Dev.Tracing = true
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.SaveTo(filepath.Join(projectDir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	s := NewServer(ServerOptions{
		Config: cfg,
		Build:  build.Options{GoCommand: "inactive-no-such-go"},
		Logger: discardLogger(),
		Tracer: noop.NewTracerProvider().Tracer("test"),
	})
	return s, projectDir
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_ServesOutput(t *testing.T) {
	s, projectDir := newTestServer(t, nil)
	dist := filepath.Join(projectDir, "dist")
	writeFile(t, filepath.Join(dist, build.IndexName), "<html>app</html>")
	writeFile(t, filepath.Join(dist, "app.wasm"), "\x00asm")
	h := s.Handler()

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}

	rec = get(t, h, "/app.wasm")
	if ct := rec.Header().Get("Content-Type"); ct != "application/wasm" {
		t.Errorf("Content-Type = %q, want application/wasm", ct)
	}

	rec = get(t, h, "/todos/42")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
		t.Errorf("client route should fall back to index.html, got %d", rec.Code)
	}

	if rec := get(t, h, "/missing.js"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing.js = %d, want 404", rec.Code)
	}

	rec = get(t, h, ReloadScriptPath)
	if !strings.Contains(rec.Body.String(), ReloadPath) {
		t.Error("reload script should connect to the reload endpoint")
	}

	rec = get(t, h, MetricsPath)
	if !strings.Contains(rec.Body.String(), `inactive_dev_requests_total{code="200",method="GET"}`) {
		t.Errorf("metrics missing request count:\n%s", rec.Body.String())
	}
}

func TestServer_NoReloadOrMetricsWhenDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Dev.HotReload = false
		cfg.Dev.Metrics = false
	})

	if rec := get(t, s.Handler(), ReloadScriptPath); rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "WebSocket") {
		t.Error("reload script should not be served")
	}
	if rec := get(t, s.Handler(), MetricsPath); strings.Contains(rec.Body.String(), "inactive_dev") {
		t.Error("metrics should not be served")
	}
}

func TestServer_StaticChangeDoesNotRebuild(t *testing.T) {
	s, projectDir := newTestServer(t, nil)
	css := filepath.Join(projectDir, "public", "site.css")
	writeFile(t, css, "body{color:red}")

	s.HandleChanges(context.Background(), []Change{{Path: css, Type: ChangeStatic}})

	got, err := os.ReadFile(filepath.Join(projectDir, "dist", "site.css"))
	if err != nil || string(got) != "body{color:red}" {
		t.Errorf("site.css not mirrored: %q, %v", got, err)
	}
	if s.compiler.Last() != nil {
		t.Error("a stylesheet change should not rebuild")
	}
}

func TestServer_SourceChangeRebuilds(t *testing.T) {
	var results []BuildResult
	s, projectDir := newTestServer(t, nil)
	s.options.OnBuildComplete = func(r BuildResult) { results = append(results, r) }

	s.HandleChanges(context.Background(), []Change{{Path: filepath.Join(projectDir, "main.go"), Type: ChangeSource}})

	if len(results) != 1 {
		t.Fatalf("builds = %d, want 1", len(results))
	}
	last := s.compiler.Last()
	if last == nil || last.Success {
		t.Fatalf("Last() = %+v, want a failed build", last)
	}
	if !strings.Contains(last.Output, "E140") {
		t.Errorf("Output = %q, want E140", last.Output)
	}

	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET / = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "E140") || !strings.Contains(rec.Body.String(), ReloadScriptTag) {
		t.Errorf("pending page should show the error and the reload script:\n%s", rec.Body.String())
	}
}
