package app

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"whiteboard/internal/bridge"
	"whiteboard/internal/domain"
	"whiteboard/internal/export"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
	"whiteboard/internal/store"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	db       *storage.DB
	store    *store.Store
	bridge   *bridge.Bridge
	backup   *service.Backup
	importer *service.Importer
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter forwards store events to the frontend. The context passed
// to Emit is ignored — Wails events need the runtime context.
type wailsEmitter struct {
	app *App
}

func (e wailsEmitter) Emit(_ context.Context, event string, data any) {
	if e.app.ctx != nil {
		wailsRuntime.EventsEmit(e.app.ctx, event, data)
	}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "whiteboard")
	dbPath := filepath.Join(dataDir, "whiteboard.db")

	db, err := storage.New(dbPath)
	if err != nil {
		// Storage unavailable is not fatal: the store runs in-memory and
		// bootstraps a default page; nothing will persist this session.
		wailsRuntime.LogErrorf(ctx, "Failed to open database: %v", err)
	}
	a.db = db

	var pages domain.PageStore = unavailableStore{}
	if db != nil {
		pages = storage.NewPageStore(db)
	}

	a.store = store.New(pages, wailsEmitter{app: a})
	a.bridge = bridge.New(a.store)
	a.store.Load(ctx)

	a.backup = service.NewBackup(a.store, filepath.Join(dataDir, "backups"), 20)
	if err := a.backup.Start(service.DefaultBackupSchedule); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start backup schedule: %v", err)
	}

	a.importer = service.NewImporter(a.store, filepath.Join(dataDir, "import"))
	if err := a.importer.Start(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start import watcher: %v", err)
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.backup != nil {
		a.backup.Stop()
	}
	if a.importer != nil {
		a.importer.Stop()
	}
	if a.store != nil {
		if err := a.store.Save(ctx); err != nil {
			wailsRuntime.LogErrorf(ctx, "Final save failed: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// ============================================================
// Pages
// ============================================================

func (a *App) ListPages() []domain.Page {
	return a.store.Pages()
}

func (a *App) GetCurrentPage() *domain.Page {
	return a.store.CurrentPage()
}

func (a *App) GetCurrentPageID() string {
	return a.store.CurrentPageID()
}

func (a *App) CreatePage(name string) domain.Page {
	return a.store.CreatePage(name)
}

func (a *App) DeletePage(id string) error {
	return a.store.DeletePage(id)
}

func (a *App) SwitchPage(id string) {
	a.store.SwitchPage(id)
}

func (a *App) RenamePage(id, name string) {
	a.store.RenamePage(id, name)
}

// ============================================================
// Objects and connections
// ============================================================

func (a *App) AddObject(obj domain.CanvasObject) *domain.CanvasObject {
	return a.store.AddObject(obj)
}

func (a *App) UpdateObject(id string, patch domain.ObjectPatch) {
	a.store.UpdateObject(id, patch)
}

func (a *App) DeleteObject(id string) {
	a.store.DeleteObject(id)
}

func (a *App) DeleteSelectedObjects() {
	a.store.DeleteSelected()
}

func (a *App) DeleteConnection(id string) {
	a.store.DeleteConnection(id)
}

// ============================================================
// Visual graph bridge
// ============================================================

func (a *App) GetNodes() []bridge.Node {
	return a.bridge.Nodes()
}

func (a *App) GetEdges() []bridge.Edge {
	return a.bridge.Edges()
}

func (a *App) ApplyNodeChanges(changes []bridge.NodeChange) {
	a.bridge.ApplyNodeChanges(changes)
}

func (a *App) ApplyEdgeChanges(changes []bridge.EdgeChange) {
	a.bridge.ApplyEdgeChanges(changes)
}

func (a *App) Connect(params bridge.ConnectParams) *domain.Connection {
	return a.bridge.Connect(params)
}

func (a *App) PlaceObject(tool string, x, y float64) *domain.CanvasObject {
	return a.bridge.PlaceObject(domain.Tool(tool), x, y)
}

func (a *App) ReconcileSelection(change bridge.SelectionChange) {
	a.bridge.ReconcileSelection(change)
}

// ============================================================
// Selection / tool / viewport
// ============================================================

func (a *App) GetSelection() []string {
	return a.store.Selection()
}

func (a *App) SelectObjects(ids []string) {
	a.store.SelectObjects(ids)
}

func (a *App) GetTool() string {
	return string(a.store.Tool())
}

func (a *App) SetTool(tool string) {
	a.store.SetTool(domain.Tool(tool))
}

func (a *App) GetViewport() domain.Viewport {
	return a.store.Viewport()
}

func (a *App) SetViewport(x, y, zoom float64) {
	a.store.SetViewport(x, y, zoom)
}

func (a *App) SetDrawing(drawing bool) {
	a.store.SetDrawing(drawing)
}

// ============================================================
// Persistence
// ============================================================

// SavePages persists everything now. Unlike the background auto-save,
// failures are returned so the frontend can surface them.
func (a *App) SavePages() error {
	return a.store.Save(a.ctx)
}

// BackupNow writes an immediate JSON snapshot and returns its path.
func (a *App) BackupNow() (string, error) {
	return a.backup.Snapshot()
}

// ExportPagePNG renders the current page and returns it as a base64 data
// URL for the frontend to download.
func (a *App) ExportPagePNG() (string, error) {
	page := a.store.CurrentPage()
	if page == nil {
		return "", nil
	}
	data, err := export.Render(*page)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// unavailableStore stands in when the database could not be opened:
// reads report the unavailability, writes fail, the session stays usable.
type unavailableStore struct{}

func (unavailableStore) GetAllPages() ([]domain.Page, error) { return nil, storage.ErrUnavailable }
func (unavailableStore) PutPage(domain.Page) error           { return storage.ErrWriteFailed }
func (unavailableStore) DeletePage(string) error             { return storage.ErrWriteFailed }
