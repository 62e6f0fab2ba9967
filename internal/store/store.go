package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"whiteboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Store — single source of truth for the diagram state
// ─────────────────────────────────────────────────────────────

// ErrLastPage is returned when deleting the only remaining page.
// A diagram always retains at least one page.
var ErrLastPage = errors.New("cannot delete the last page")

// DefaultSaveDelay is the auto-save quiescence window: a save fires once
// no qualifying change has happened for this long.
const DefaultSaveDelay = 2 * time.Second

// Store holds all pages, the active page, selection, tool, and viewport,
// and exposes every operation that mutates them. All mutations pass
// through it; every page mutation arms a debounced background save.
//
// Mutations are synchronous and atomic: each one builds fresh slices for
// the affected page and swaps the page entry, so an in-flight save always
// serializes a consistent snapshot.
type Store struct {
	persist domain.PageStore
	emitter EventEmitter

	mu            sync.Mutex
	pages         []domain.Page
	currentPageID string
	selection     []string
	tool          domain.Tool
	viewport      domain.Viewport
	drawing       bool

	scheduleSave func(f func())
}

// New creates a Store backed by the given page store.
func New(persist domain.PageStore, emitter EventEmitter) *Store {
	return &Store{
		persist:      persist,
		emitter:      emitter,
		tool:         domain.ToolSelect,
		viewport:     domain.Viewport{Zoom: 1},
		scheduleSave: debounce.New(DefaultSaveDelay),
	}
}

// SetSaveDelay replaces the auto-save quiescence window. Used by tests
// to shrink the debounce interval.
func (s *Store) SetSaveDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleSave = debounce.New(d)
}

// ── Read accessors ─────────────────────────────────────────

// Pages returns a copy of the page list.
func (s *Store) Pages() []domain.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Page(nil), s.pages...)
}

// CurrentPageID returns the active page id, empty before initialization.
func (s *Store) CurrentPageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPageID
}

// CurrentPage returns a deep copy of the active page, or nil.
func (s *Store) CurrentPage() *domain.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.currentPageLocked(); p != nil {
		out := p.Clone()
		return &out
	}
	return nil
}

// Selection returns the selected object ids in selection order.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selection...)
}

// Tool returns the active tool.
func (s *Store) Tool() domain.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Viewport returns the current camera state.
func (s *Store) Viewport() domain.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// IsDrawing reports whether a draw gesture is in progress.
func (s *Store) IsDrawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// ── Pages ──────────────────────────────────────────────────

// CreatePage appends a fresh page and makes it current. An empty name
// defaults to a timestamp-derived label.
func (s *Store) CreatePage(name string) domain.Page {
	if name == "" {
		name = "New Page " + time.Now().Format("1/2/2006, 3:04:05 PM")
	}
	now := time.Now()
	p := domain.Page{
		ID:          uuid.New().String(),
		Name:        name,
		Objects:     []domain.CanvasObject{},
		Connections: []domain.Connection{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.currentPageID = p.ID
	s.mu.Unlock()

	s.pagesChanged()
	return p
}

// DeletePage removes a page. Deleting the last remaining page is refused
// with ErrLastPage and the state is unchanged. If the deleted page was
// current, the first remaining page becomes current. Removal from disk is
// best-effort: a persistence failure is logged, not surfaced, because the
// in-memory deletion already succeeded.
func (s *Store) DeletePage(id string) error {
	s.mu.Lock()
	if len(s.pages) <= 1 {
		s.mu.Unlock()
		return ErrLastPage
	}
	remaining := make([]domain.Page, 0, len(s.pages))
	found := false
	for _, p := range s.pages {
		if p.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		s.mu.Unlock()
		return nil
	}
	s.pages = remaining
	selectionChanged := false
	if s.currentPageID == id {
		s.currentPageID = ""
		if len(remaining) > 0 {
			s.currentPageID = remaining[0].ID
		}
		selectionChanged = len(s.selection) > 0
		s.selection = nil
	}
	s.mu.Unlock()

	go s.deleteFromDisk(id)

	s.pagesChanged()
	if selectionChanged {
		s.emitter.Emit(context.Background(), EventSelectionChanged, []string{})
	}
	return nil
}

// SwitchPage makes the page current and clears the selection. Unknown
// ids are ignored — selection is scoped to a single page, so a stale
// cross-page selection is never kept.
func (s *Store) SwitchPage(id string) {
	s.mu.Lock()
	if s.findPageLocked(id) < 0 {
		s.mu.Unlock()
		return
	}
	s.currentPageID = id
	s.selection = nil
	s.mu.Unlock()

	s.emitter.Emit(context.Background(), EventPagesChanged, id)
	s.emitter.Emit(context.Background(), EventSelectionChanged, []string{})
}

// RenamePage updates a page's display name. Unknown ids are a no-op.
func (s *Store) RenamePage(id, name string) {
	s.mu.Lock()
	i := s.findPageLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	p := s.pages[i].Clone()
	p.Name = name
	p.UpdatedAt = time.Now()
	s.pages[i] = p
	s.mu.Unlock()

	s.pagesChanged()
}

// ── Objects ────────────────────────────────────────────────

// AddObject assigns a fresh id and appends the object to the current
// page. Returns nil when there is no current page. Circle and diamond
// shapes are normalized so width == height.
func (s *Store) AddObject(obj domain.CanvasObject) *domain.CanvasObject {
	obj.ID = uuid.New().String()
	if domain.IsSquareType(obj.Type) {
		obj.Height = obj.Width
	}

	s.mu.Lock()
	i := s.findPageLocked(s.currentPageID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	p := s.pages[i].Clone()
	p.Objects = append(p.Objects, obj)
	p.UpdatedAt = time.Now()
	s.pages[i] = p
	s.mu.Unlock()

	s.pagesChanged()
	return &obj
}

// UpdateObject merges a partial update into the matching object on the
// current page. For circle and diamond shapes, touching width or height
// forces both to the same value (width wins when both are given).
// Unknown ids are a no-op.
func (s *Store) UpdateObject(id string, patch domain.ObjectPatch) {
	s.mu.Lock()
	i := s.findPageLocked(s.currentPageID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	p := s.pages[i].Clone()
	updated := false
	for j := range p.Objects {
		if p.Objects[j].ID != id {
			continue
		}
		applyPatch(&p.Objects[j], patch)
		updated = true
		break
	}
	if !updated {
		s.mu.Unlock()
		return
	}
	p.UpdatedAt = time.Now()
	s.pages[i] = p
	s.mu.Unlock()

	s.pagesChanged()
}

func applyPatch(o *domain.CanvasObject, patch domain.ObjectPatch) {
	if patch.X != nil {
		o.X = *patch.X
	}
	if patch.Y != nil {
		o.Y = *patch.Y
	}
	if patch.Width != nil {
		o.Width = *patch.Width
	}
	if patch.Height != nil {
		o.Height = *patch.Height
	}
	if patch.Rotation != nil {
		o.Rotation = *patch.Rotation
	}
	if patch.Text != nil {
		o.Text = *patch.Text
	}
	if patch.FillColor != nil {
		o.FillColor = *patch.FillColor
	}
	if patch.StrokeColor != nil {
		o.StrokeColor = *patch.StrokeColor
	}
	if patch.StrokeWidth != nil {
		o.StrokeWidth = *patch.StrokeWidth
	}
	if patch.ZIndex != nil {
		o.ZIndex = *patch.ZIndex
	}
	if domain.IsSquareType(o.Type) && (patch.Width != nil || patch.Height != nil) {
		side := o.Height
		if patch.Width != nil {
			side = o.Width
		}
		o.Width, o.Height = side, side
	}
}

// DeleteObject removes the object from the current page and cascades to
// every connection referencing it as source or target, so a dangling
// connection never survives the operation. The id is also dropped from
// the selection. Unknown ids are a no-op.
func (s *Store) DeleteObject(id string) {
	s.mu.Lock()
	i := s.findPageLocked(s.currentPageID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	p := s.pages[i]
	objects := make([]domain.CanvasObject, 0, len(p.Objects))
	found := false
	for _, o := range p.Objects {
		if o.ID == id {
			found = true
			continue
		}
		objects = append(objects, o)
	}
	if !found {
		s.mu.Unlock()
		return
	}
	connections := make([]domain.Connection, 0, len(p.Connections))
	for _, c := range p.Connections {
		if c.SourceID == id || c.TargetID == id {
			continue
		}
		connections = append(connections, c)
	}
	p.Objects = objects
	p.Connections = connections
	p.UpdatedAt = time.Now()
	s.pages[i] = p

	selectionChanged := false
	selection := make([]string, 0, len(s.selection))
	for _, sel := range s.selection {
		if sel == id {
			selectionChanged = true
			continue
		}
		selection = append(selection, sel)
	}
	s.selection = selection
	s.mu.Unlock()

	s.pagesChanged()
	if selectionChanged {
		s.emitter.Emit(context.Background(), EventSelectionChanged, selection)
	}
}

// DeleteSelected removes every selected object, cascading as DeleteObject
// does, then clears the selection.
func (s *Store) DeleteSelected() {
	for _, id := range s.Selection() {
		s.DeleteObject(id)
	}
	s.SelectObjects(nil)
}

// ── Connections ────────────────────────────────────────────

// AddConnection assigns a fresh id and appends the connection to the
// current page. The caller is responsible for supplying existing endpoint
// ids; referential integrity is maintained by the cascade in
// DeleteObject. Returns nil when there is no current page.
func (s *Store) AddConnection(c domain.Connection) *domain.Connection {
	c.ID = uuid.New().String()

	s.mu.Lock()
	i := s.findPageLocked(s.currentPageID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	p := s.pages[i].Clone()
	p.Connections = append(p.Connections, c)
	p.UpdatedAt = time.Now()
	s.pages[i] = p
	s.mu.Unlock()

	s.pagesChanged()
	return &c
}

// DeleteConnection removes a connection from the current page. Unknown
// ids are a no-op.
func (s *Store) DeleteConnection(id string) {
	s.mu.Lock()
	i := s.findPageLocked(s.currentPageID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	p := s.pages[i]
	connections := make([]domain.Connection, 0, len(p.Connections))
	found := false
	for _, c := range p.Connections {
		if c.ID == id {
			found = true
			continue
		}
		connections = append(connections, c)
	}
	if !found {
		s.mu.Unlock()
		return
	}
	p.Connections = connections
	p.UpdatedAt = time.Now()
	s.pages[i] = p
	s.mu.Unlock()

	s.pagesChanged()
}

// ── Selection / tool / viewport ────────────────────────────

// SelectObjects replaces the selection with the given sequence,
// deduplicated in first-occurrence order and filtered to ids that exist
// on the current page. An empty sequence clears the selection.
func (s *Store) SelectObjects(ids []string) {
	s.mu.Lock()
	var existing map[string]bool
	if p := s.currentPageLocked(); p != nil {
		existing = p.ObjectIDs()
	}
	seen := make(map[string]bool, len(ids))
	selection := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] || !existing[id] {
			continue
		}
		seen[id] = true
		selection = append(selection, id)
	}
	s.selection = selection
	s.mu.Unlock()

	s.emitter.Emit(context.Background(), EventSelectionChanged, selection)
}

// SetTool sets the active tool.
func (s *Store) SetTool(t domain.Tool) {
	s.mu.Lock()
	s.tool = t
	s.mu.Unlock()
	s.emitter.Emit(context.Background(), EventToolChanged, string(t))
}

// SetViewport sets the camera pan offset and zoom.
func (s *Store) SetViewport(x, y, zoom float64) {
	s.mu.Lock()
	s.viewport = domain.Viewport{X: x, Y: y, Zoom: zoom}
	s.mu.Unlock()
	s.emitter.Emit(context.Background(), EventViewportChanged, domain.Viewport{X: x, Y: y, Zoom: zoom})
}

// SetDrawing flags a draw gesture as in progress.
func (s *Store) SetDrawing(drawing bool) {
	s.mu.Lock()
	s.drawing = drawing
	s.mu.Unlock()
}

// ── internal ───────────────────────────────────────────────

func (s *Store) findPageLocked(id string) int {
	for i := range s.pages {
		if s.pages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) currentPageLocked() *domain.Page {
	if i := s.findPageLocked(s.currentPageID); i >= 0 {
		return &s.pages[i]
	}
	return nil
}

// pagesChanged notifies observers and arms the debounced auto-save.
func (s *Store) pagesChanged() {
	s.emitter.Emit(context.Background(), EventPagesChanged, nil)
	s.mu.Lock()
	schedule := s.scheduleSave
	s.mu.Unlock()
	schedule(s.autoSave)
}
