package view

import (
	"io"
	"log/slog"
	"testing"

	"github.com/CTAG07/layerview/pkg/snippet"
	"github.com/CTAG07/layerview/pkg/store"
)

// memStore is an in-memory store.Store keyed by kind and normalized name.
type memStore map[store.Kind]map[string]string

func (m memStore) Load(kind store.Kind, name string) (string, error) {
	if kind == store.KindPartial {
		kind = store.KindPage
	}
	if name == "" {
		name = store.DefaultName
	}
	text, ok := m[kind][name]
	if !ok {
		return "", store.ErrNotFound
	}
	return text, nil
}

// newTestEngine creates an Engine over the given layouts and pages with the HCL evaluator.
func newTestEngine(tb testing.TB, layouts, pages map[string]string) *Engine {
	tb.Helper()
	st := memStore{store.KindLayout: layouts, store.KindPage: pages}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(logger, st, snippet.NewHCL(false), DefaultConfig())
	if err != nil {
		tb.Fatalf("New failed: %v", err)
	}
	return e
}
