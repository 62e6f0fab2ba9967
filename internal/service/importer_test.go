package service_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"whiteboard/internal/service"
	"whiteboard/internal/store"
)

// ─────────────────────────────────────────────────────────────
// Import drop directory
// ─────────────────────────────────────────────────────────────

func TestImporter_ImportFile_SinglePage(t *testing.T) {
	s := store.New(nullPageStore{}, &store.MockEmitter{})
	s.CreatePage("existing")
	im := service.NewImporter(s, t.TempDir())

	path := filepath.Join(t.TempDir(), "page.json")
	doc := `{"id": "ext-1", "name": "Imported", "objects": [], "connections": []}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	n, err := im.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 page imported, got %d", n)
	}
	pages := s.Pages()
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[1].Name != "Imported" {
		t.Errorf("unexpected imported page: %v", pages[1])
	}
}

func TestImporter_ImportFile_ArraySkipsNameless(t *testing.T) {
	s := store.New(nullPageStore{}, &store.MockEmitter{})
	s.CreatePage("existing")
	im := service.NewImporter(s, t.TempDir())

	path := filepath.Join(t.TempDir(), "pages.json")
	doc := `[{"name": "One"}, {"name": ""}, {"name": "Two"}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	n, err := im.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n != 2 {
		t.Errorf("nameless pages must be skipped, imported %d", n)
	}
}

func TestImporter_ImportFile_RejectsGarbage(t *testing.T) {
	s := store.New(nullPageStore{}, &store.MockEmitter{})
	im := service.NewImporter(s, t.TempDir())

	path := filepath.Join(t.TempDir(), "junk.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if _, err := im.ImportFile(path); err == nil {
		t.Fatal("expected error for a non-page document")
	}
}

func TestImporter_WatchesDropDirectory(t *testing.T) {
	s := store.New(nullPageStore{}, &store.MockEmitter{})
	s.CreatePage("existing")

	dir := t.TempDir()
	im := service.NewImporter(s, dir)
	if err := im.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer im.Stop()

	doc := `{"name": "Dropped"}`
	if err := os.WriteFile(filepath.Join(dir, "drop.json"), []byte(doc), 0644); err != nil {
		t.Fatalf("write drop: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(s.Pages()) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("dropped file was never imported")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
