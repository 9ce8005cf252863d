package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestServer builds a Server over a file store seeded with files, paths
// relative to the template root, and a private in-memory database.
func newTestServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, "templates", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := DefaultConfig()
	cfg.Server.TemplateDir = filepath.Join(dir, "templates")
	cfg.Server.DatabasePath = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	cm := &ConfigManager{config: cfg, configPath: filepath.Join(dir, "config.json"), logger: testLogger}

	db, err := initDB(cfg.Server.DatabasePath)
	if err != nil {
		t.Fatalf("initDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = setupAuthSchema(db); err != nil {
		t.Fatal(err)
	}

	catalog, err := newCatalog(cfg, db)
	if err != nil {
		t.Fatalf("newCatalog failed: %v", err)
	}
	return NewServer(cm, testLogger, db, catalog, make(chan string, 1))
}

// do sends a request to h and returns the recorded response.
func do(h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
