package store

import (
	"database/sql"
	"fmt"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB opens a private in-memory database with the template schema.
func setupTestDB(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", tb.Name()))
	if err != nil {
		tb.Fatalf("failed to open in-memory db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err = SetupSchema(db); err != nil {
		tb.Fatalf("failed to setup schema: %v", err)
	}
	// Running it twice must be harmless.
	if err = SetupSchema(db); err != nil {
		tb.Fatalf("second SetupSchema failed: %v", err)
	}
	return db
}

func TestSQLStore(t *testing.T) {
	s := NewSQLStore(setupTestDB(t))

	_, err := s.Load(KindPage, "missing")
	assertNotFound(t, err)

	if err = s.Save(KindLayout, "", "layout v1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err = s.Save(KindLayout, "default", "layout v2"); err != nil {
		t.Fatalf("Save overwrite failed: %v", err)
	}
	if err = s.Save(KindPage, "blog/post", "post"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err = s.Save(KindPartial, "header", "header"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(KindLayout, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "layout v2" {
		t.Errorf("expected overwritten layout, got %q", got)
	}

	got, err = s.Load(KindPartial, "blog/post")
	if err != nil {
		t.Fatalf("Load partial from page namespace failed: %v", err)
	}
	if got != "post" {
		t.Errorf("expected 'post', got %q", got)
	}

	names, err := s.Names(KindPage)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if expected := []string{"blog/post", "header"}; !reflect.DeepEqual(names, expected) {
		t.Errorf("Names(page) = %v, expected %v", names, expected)
	}

	_, err = s.Load(KindPage, "../header")
	assertNotFound(t, err)
}
