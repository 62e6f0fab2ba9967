package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"whiteboard/internal/domain"
	"whiteboard/internal/store"
)

// ─────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────

// fakePageStore is an in-memory domain.PageStore that counts operations.
type fakePageStore struct {
	mu          sync.Mutex
	pages       map[string]domain.Page
	putCalls    int
	deleteCalls []string
	getErr      error
	putErr      error
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: map[string]domain.Page{}}
}

func (f *fakePageStore) GetAllPages() ([]domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []domain.Page
	for _, p := range f.pages {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePageStore) PutPage(p domain.Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.pages[p.ID] = p
	return nil
}

func (f *fakePageStore) DeletePage(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	delete(f.pages, id)
	return nil
}

func (f *fakePageStore) puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls
}

func (f *fakePageStore) deletes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleteCalls...)
}

func newTestStore() (*store.Store, *fakePageStore, *store.MockEmitter) {
	persist := newFakePageStore()
	emitter := &store.MockEmitter{}
	s := store.New(persist, emitter)
	return s, persist, emitter
}

func addRect(t *testing.T, s *store.Store) domain.CanvasObject {
	t.Helper()
	obj := s.AddObject(domain.CanvasObject{Type: domain.ObjectRectangle, X: 10, Y: 10, Width: 120, Height: 80})
	if obj == nil {
		t.Fatal("expected AddObject to succeed")
	}
	return *obj
}

// ─────────────────────────────────────────────────────────────
// Initialization and pages
// ─────────────────────────────────────────────────────────────

func TestLoad_EmptyStoreBootstrapsDefaultPage(t *testing.T) {
	s, _, _ := newTestStore()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages := s.Pages()
	if len(pages) != 1 {
		t.Fatalf("expected 1 bootstrap page, got %d", len(pages))
	}
	if pages[0].Name != "First Page" {
		t.Errorf("expected default page name 'First Page', got %q", pages[0].Name)
	}
	if s.CurrentPageID() != pages[0].ID {
		t.Error("bootstrap page should be current")
	}
}

func TestLoad_UnavailableStoreStillBootstraps(t *testing.T) {
	persist := newFakePageStore()
	persist.getErr = errors.New("disk on fire")
	s := store.New(persist, &store.MockEmitter{})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load should not fail on an unavailable store: %v", err)
	}
	if len(s.Pages()) != 1 {
		t.Fatal("expected a default page despite the load failure")
	}
}

func TestLoad_ExistingPagesFirstBecomesCurrent(t *testing.T) {
	persist := newFakePageStore()
	persist.pages["p1"] = domain.Page{ID: "p1", Name: "Saved"}
	s := store.New(persist, &store.MockEmitter{})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CurrentPageID() != "p1" {
		t.Errorf("expected p1 current, got %q", s.CurrentPageID())
	}
	if len(s.Selection()) != 0 {
		t.Error("selection should be empty after load")
	}
}

func TestCreatePage_EmptyNameGetsTimestampLabel(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreatePage("")
	if !strings.HasPrefix(p.Name, "New Page ") {
		t.Errorf("expected timestamp-derived name, got %q", p.Name)
	}
	if s.CurrentPageID() != p.ID {
		t.Error("new page should become current")
	}
}

func TestDeletePage_LastPageRefused(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreatePage("only")

	if err := s.DeletePage(p.ID); !errors.Is(err, store.ErrLastPage) {
		t.Fatalf("expected ErrLastPage, got %v", err)
	}
	if len(s.Pages()) != 1 {
		t.Error("state must be unchanged after refused delete")
	}
}

func TestDeletePage_CurrentFallsBackToFirstRemaining(t *testing.T) {
	s, persist, _ := newTestStore()
	a := s.CreatePage("A")
	b := s.CreatePage("B")
	obj := addRect(t, s) // on B
	s.SelectObjects([]string{obj.ID})

	if err := s.DeletePage(b.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if s.CurrentPageID() != a.ID {
		t.Errorf("expected fallback to page A, got %q", s.CurrentPageID())
	}
	if len(s.Selection()) != 0 {
		t.Error("selection must be cleared when the current page is deleted")
	}

	// Disk removal is async best-effort.
	deadline := time.Now().Add(time.Second)
	for {
		if dels := persist.deletes(); len(dels) == 1 && dels[0] == b.ID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected background disk delete for page B")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDeletePage_NonCurrentKeepsSelection(t *testing.T) {
	s, _, _ := newTestStore()
	a := s.CreatePage("A")
	s.CreatePage("B")
	obj := addRect(t, s) // on B, which is current
	s.SelectObjects([]string{obj.ID})

	if err := s.DeletePage(a.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if got := s.Selection(); len(got) != 1 || got[0] != obj.ID {
		t.Errorf("selection should survive deleting a non-current page, got %v", got)
	}
}

func TestDeletePage_UnknownIDIsNoop(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("A")
	s.CreatePage("B")
	if err := s.DeletePage("nope"); err != nil {
		t.Fatalf("unknown id should be a no-op, got %v", err)
	}
	if len(s.Pages()) != 2 {
		t.Error("page list must be unchanged")
	}
}

func TestSwitchPage_ClearsSelection(t *testing.T) {
	s, _, _ := newTestStore()
	a := s.CreatePage("A")
	s.CreatePage("B")
	obj := addRect(t, s)
	s.SelectObjects([]string{obj.ID})

	s.SwitchPage(a.ID)
	if s.CurrentPageID() != a.ID {
		t.Errorf("expected current page A, got %q", s.CurrentPageID())
	}
	if len(s.Selection()) != 0 {
		t.Error("selection must be cleared on page switch")
	}
}

func TestSwitchPage_UnknownIDIsNoop(t *testing.T) {
	s, _, _ := newTestStore()
	a := s.CreatePage("A")
	s.SwitchPage("nope")
	if s.CurrentPageID() != a.ID {
		t.Errorf("current page must not change on unknown id, got %q", s.CurrentPageID())
	}
}

func TestRenamePage(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreatePage("old")
	s.RenamePage(p.ID, "new")
	if got := s.Pages()[0].Name; got != "new" {
		t.Errorf("expected renamed page, got %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Objects
// ─────────────────────────────────────────────────────────────

func TestAddObject_WithoutCurrentPage(t *testing.T) {
	s, _, _ := newTestStore()
	if obj := s.AddObject(domain.CanvasObject{Type: domain.ObjectRectangle}); obj != nil {
		t.Errorf("expected nil without a current page, got %v", obj)
	}
}

func TestAddObject_SquareTypesNormalized(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")

	circle := s.AddObject(domain.CanvasObject{Type: domain.ObjectCircle, Width: 100, Height: 60})
	if circle.Width != circle.Height {
		t.Errorf("circle must stay square, got %gx%g", circle.Width, circle.Height)
	}
	rect := s.AddObject(domain.CanvasObject{Type: domain.ObjectRectangle, Width: 120, Height: 80})
	if rect.Width != 120 || rect.Height != 80 {
		t.Errorf("rectangle dimensions must be kept, got %gx%g", rect.Width, rect.Height)
	}
}

func TestUpdateObject_PartialPatch(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	obj := addRect(t, s)

	x := 42.0
	text := "hello"
	s.UpdateObject(obj.ID, domain.ObjectPatch{X: &x, Text: &text})

	got := s.CurrentPage().FindObject(obj.ID)
	if got.X != 42 || got.Text != "hello" {
		t.Errorf("patched fields not applied: %v", got)
	}
	if got.Y != obj.Y || got.Width != obj.Width {
		t.Errorf("untouched fields must be preserved: %v", got)
	}
}

func TestUpdateObject_SquareInvariantWidthWins(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	circle := s.AddObject(domain.CanvasObject{Type: domain.ObjectDiamond, Width: 120, Height: 120})

	w, h := 200.0, 50.0
	s.UpdateObject(circle.ID, domain.ObjectPatch{Width: &w, Height: &h})
	got := s.CurrentPage().FindObject(circle.ID)
	if got.Width != 200 || got.Height != 200 {
		t.Errorf("width should win for square types, got %gx%g", got.Width, got.Height)
	}

	s.UpdateObject(circle.ID, domain.ObjectPatch{Height: &h})
	got = s.CurrentPage().FindObject(circle.ID)
	if got.Width != 50 || got.Height != 50 {
		t.Errorf("height-only patch should square both, got %gx%g", got.Width, got.Height)
	}
}

func TestUpdateObject_UnknownIDIsNoop(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	before := s.CurrentPage().UpdatedAt
	x := 1.0
	s.UpdateObject("nope", domain.ObjectPatch{X: &x})
	if !s.CurrentPage().UpdatedAt.Equal(before) {
		t.Error("patching an unknown id must not touch the page")
	}
}

func TestDeleteObject_CascadesExactly(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	b := addRect(t, s)
	c := addRect(t, s)

	ab := s.AddConnection(domain.Connection{SourceID: a.ID, TargetID: b.ID})
	bc := s.AddConnection(domain.Connection{SourceID: b.ID, TargetID: c.ID})
	ca := s.AddConnection(domain.Connection{SourceID: c.ID, TargetID: a.ID})
	s.SelectObjects([]string{a.ID, b.ID})

	s.DeleteObject(b.ID)

	page := s.CurrentPage()
	if len(page.Objects) != 2 {
		t.Fatalf("expected 2 objects left, got %d", len(page.Objects))
	}
	if len(page.Connections) != 1 || page.Connections[0].ID != ca.ID {
		t.Errorf("only the c->a connection should survive, got %v", page.Connections)
	}
	for _, dropped := range []string{ab.ID, bc.ID} {
		for _, conn := range page.Connections {
			if conn.ID == dropped {
				t.Errorf("dangling connection %s survived the cascade", dropped)
			}
		}
	}
	if got := s.Selection(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("b must be dropped from the selection, got %v", got)
	}
}

func TestDeleteSelected(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	b := addRect(t, s)
	keep := addRect(t, s)
	s.AddConnection(domain.Connection{SourceID: a.ID, TargetID: keep.ID})
	s.SelectObjects([]string{a.ID, b.ID})

	s.DeleteSelected()

	page := s.CurrentPage()
	if len(page.Objects) != 1 || page.Objects[0].ID != keep.ID {
		t.Errorf("expected only the unselected object to survive, got %v", page.Objects)
	}
	if len(page.Connections) != 0 {
		t.Errorf("connections to deleted objects must be cascaded, got %v", page.Connections)
	}
	if len(s.Selection()) != 0 {
		t.Error("selection must be empty afterwards")
	}
}

// ─────────────────────────────────────────────────────────────
// Connections
// ─────────────────────────────────────────────────────────────

func TestAddConnection_AssignsID(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	b := addRect(t, s)

	conn := s.AddConnection(domain.Connection{SourceID: a.ID, TargetID: b.ID, ArrowType: domain.ArrowTypeArrow})
	if conn == nil || conn.ID == "" {
		t.Fatal("expected connection with a fresh id")
	}
	if len(s.CurrentPage().Connections) != 1 {
		t.Error("connection not appended to the current page")
	}
}

func TestDeleteConnection(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	b := addRect(t, s)
	conn := s.AddConnection(domain.Connection{SourceID: a.ID, TargetID: b.ID})

	s.DeleteConnection(conn.ID)
	if len(s.CurrentPage().Connections) != 0 {
		t.Error("connection should be removed")
	}
	if len(s.CurrentPage().Objects) != 2 {
		t.Error("deleting a connection must not touch objects")
	}

	s.DeleteConnection("nope") // no-op
}

// ─────────────────────────────────────────────────────────────
// Selection, tool, viewport
// ─────────────────────────────────────────────────────────────

func TestSelectObjects_DedupAndFilter(t *testing.T) {
	s, _, emitter := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	b := addRect(t, s)

	s.SelectObjects([]string{a.ID, "ghost", b.ID, a.ID, b.ID})

	got := s.Selection()
	if len(got) != 2 || got[0] != a.ID || got[1] != b.ID {
		t.Errorf("expected deduplicated first-occurrence order [a b], got %v", got)
	}

	last := emitter.Events[len(emitter.Events)-1]
	if last.Event != store.EventSelectionChanged {
		t.Errorf("expected selection-changed emission, got %q", last.Event)
	}
}

func TestSelectObjects_EmptyClears(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("p")
	a := addRect(t, s)
	s.SelectObjects([]string{a.ID})
	s.SelectObjects(nil)
	if len(s.Selection()) != 0 {
		t.Error("expected cleared selection")
	}
}

func TestToolAndViewport(t *testing.T) {
	s, _, emitter := newTestStore()

	if s.Tool() != domain.ToolSelect {
		t.Errorf("default tool must be select, got %q", s.Tool())
	}
	if s.Viewport().Zoom != 1 {
		t.Errorf("default zoom must be 1, got %g", s.Viewport().Zoom)
	}

	s.SetTool(domain.ToolPan)
	if s.Tool() != domain.ToolPan {
		t.Errorf("expected pan tool, got %q", s.Tool())
	}

	s.SetViewport(10, -5, 1.5)
	vp := s.Viewport()
	if vp.X != 10 || vp.Y != -5 || vp.Zoom != 1.5 {
		t.Errorf("unexpected viewport %v", vp)
	}

	s.SetDrawing(true)
	if !s.IsDrawing() {
		t.Error("expected drawing flag set")
	}

	var events []string
	for _, e := range emitter.Events {
		events = append(events, e.Event)
	}
	wantSeen := map[string]bool{store.EventToolChanged: false, store.EventViewportChanged: false}
	for _, e := range events {
		if _, ok := wantSeen[e]; ok {
			wantSeen[e] = true
		}
	}
	for e, seen := range wantSeen {
		if !seen {
			t.Errorf("expected %s to be emitted", e)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Persistence
// ─────────────────────────────────────────────────────────────

func TestSave_PersistsEveryPage(t *testing.T) {
	s, persist, _ := newTestStore()
	s.CreatePage("A")
	s.CreatePage("B")

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	persist.mu.Lock()
	stored := len(persist.pages)
	persist.mu.Unlock()
	if stored != 2 {
		t.Errorf("expected both pages stored, got %d", stored)
	}
}

func TestSave_SurfacesFailuresAndEmits(t *testing.T) {
	s, persist, emitter := newTestStore()
	s.CreatePage("A")
	persist.mu.Lock()
	persist.putErr = errors.New("quota exceeded")
	persist.mu.Unlock()

	if err := s.Save(context.Background()); err == nil {
		t.Fatal("expected save failure to be returned")
	}

	found := false
	for _, e := range emitter.Events {
		if e.Event == store.EventSaveFailed {
			found = true
		}
	}
	if !found {
		t.Error("expected save-failed emission")
	}
	// In-memory state stays authoritative.
	if len(s.Pages()) != 1 {
		t.Error("failed save must not roll back in-memory state")
	}
}

func TestAutoSave_CoalescesBurstsIntoOneWrite(t *testing.T) {
	s, persist, _ := newTestStore()
	s.SetSaveDelay(100 * time.Millisecond)
	s.CreatePage("p")

	// A burst of mutations inside the quiescence window.
	for i := 0; i < 5; i++ {
		addRect(t, s)
	}
	baseline := persist.puts()
	if baseline != 0 {
		t.Fatalf("no save should fire mid-burst, got %d puts", baseline)
	}

	deadline := time.Now().Add(2 * time.Second)
	for persist.puts() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced save never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Let any stragglers land, then confirm the burst produced one save
	// run (one put for the single page).
	time.Sleep(200 * time.Millisecond)
	if got := persist.puts(); got != 1 {
		t.Errorf("expected a single coalesced put, got %d", got)
	}
}

func TestSaveLoad_RoundTripEquivalence(t *testing.T) {
	persist := newFakePageStore()
	s1 := store.New(persist, &store.MockEmitter{})
	s1.CreatePage("Diagram")
	rect := s1.AddObject(domain.CanvasObject{Type: domain.ObjectRectangle, X: 10, Y: 20, Width: 120, Height: 80, Text: "start"})
	circle := s1.AddObject(domain.CanvasObject{Type: domain.ObjectCircle, X: 300, Y: 20, Width: 100, Height: 100})
	s1.AddConnection(domain.Connection{SourceID: rect.ID, TargetID: circle.ID, ArrowType: domain.ArrowTypeArrow})

	if err := s1.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := store.New(persist, &store.MockEmitter{})
	if err := s2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	page := s2.CurrentPage()
	if page == nil || page.Name != "Diagram" {
		t.Fatalf("expected the saved page to load, got %v", page)
	}
	if len(page.Objects) != 2 || len(page.Connections) != 1 {
		t.Errorf("round trip lost content: %d objects, %d connections", len(page.Objects), len(page.Connections))
	}
	if got := page.FindObject(rect.ID); got == nil || got.Text != "start" {
		t.Errorf("object content did not survive the round trip: %v", got)
	}
}

func TestScenario_ConnectThenDeleteEndpoint(t *testing.T) {
	s, _, _ := newTestStore()
	s.CreatePage("flow")

	rect := s.AddObject(domain.CanvasObject{Type: domain.ObjectRectangle, Width: 120, Height: 80})
	circle := s.AddObject(domain.CanvasObject{Type: domain.ObjectCircle, Width: 100, Height: 100})
	conn := s.AddConnection(domain.Connection{SourceID: rect.ID, TargetID: circle.ID, ArrowType: domain.ArrowTypeArrow})
	if conn == nil {
		t.Fatal("expected connection")
	}

	s.DeleteObject(circle.ID)

	page := s.CurrentPage()
	if len(page.Objects) != 1 || page.Objects[0].ID != rect.ID {
		t.Fatalf("expected only the rectangle to remain, got %v", page.Objects)
	}
	if len(page.Connections) != 0 {
		t.Errorf("the connection must go with its endpoint, got %v", page.Connections)
	}
	for _, c := range page.Connections {
		if !domain.ValidConnection(c, page.ObjectIDs()) {
			t.Errorf("dangling connection after delete: %v", c)
		}
	}
}

func TestImportPage_FreshIDOnCollision(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreatePage("existing")

	imported := s.ImportPage(domain.Page{ID: p.ID, Name: "dropped in"})
	if imported.ID == p.ID || imported.ID == "" {
		t.Errorf("colliding id must be replaced, got %q", imported.ID)
	}
	if s.CurrentPageID() != p.ID {
		t.Error("import must not steal the current page")
	}
	if len(s.Pages()) != 2 {
		t.Errorf("expected 2 pages, got %d", len(s.Pages()))
	}
}
