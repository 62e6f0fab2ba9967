package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"whiteboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Persistence — save, load, import
// ─────────────────────────────────────────────────────────────

// Save persists every page through the page store. Failures are
// aggregated and returned; in-memory state is never rolled back — the
// session state stays authoritative regardless of persistence outcome.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	pages := append([]domain.Page(nil), s.pages...)
	s.mu.Unlock()

	var errs []error
	for _, p := range pages {
		if err := s.persist.PutPage(p); err != nil {
			errs = append(errs, fmt.Errorf("page %s: %w", p.ID, err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.emitter.Emit(ctx, EventSaveFailed, err.Error())
		return err
	}
	return nil
}

// Load reads all pages from the page store and replaces the in-memory
// set, making the first loaded page current with a cleared selection.
// An empty or unavailable store falls back to creating one default page,
// so initialization never ends with zero pages.
func (s *Store) Load(ctx context.Context) error {
	pages, err := s.persist.GetAllPages()
	if err != nil {
		log.Printf("store: load failed, starting with a default page: %v", err)
	}
	if err != nil || len(pages) == 0 {
		s.CreatePage("First Page")
		return nil
	}

	s.mu.Lock()
	s.pages = pages
	s.currentPageID = pages[0].ID
	s.selection = nil
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventPagesChanged, nil)
	s.emitter.Emit(ctx, EventSelectionChanged, []string{})
	return nil
}

// ImportPage adds an externally produced page document to the page list
// without making it current. A missing or colliding id is replaced with
// a fresh one.
func (s *Store) ImportPage(p domain.Page) domain.Page {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Objects == nil {
		p.Objects = []domain.CanvasObject{}
	}
	if p.Connections == nil {
		p.Connections = []domain.Connection{}
	}

	s.mu.Lock()
	if p.ID == "" || s.findPageLocked(p.ID) >= 0 {
		p.ID = uuid.New().String()
	}
	s.pages = append(s.pages, p)
	s.mu.Unlock()

	s.pagesChanged()
	return p
}

// autoSave runs after the debounce window elapses. Background saves are
// logged, not surfaced; explicit saves go through Save directly.
func (s *Store) autoSave() {
	if err := s.Save(context.Background()); err != nil {
		log.Printf("store: auto-save failed: %v", err)
	}
}

// deleteFromDisk is the best-effort background removal that follows an
// in-memory page deletion.
func (s *Store) deleteFromDisk(id string) {
	if err := s.persist.DeletePage(id); err != nil {
		log.Printf("store: delete page %s from disk failed: %v", id, err)
	}
}
