package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"whiteboard/internal/domain"
	"whiteboard/internal/store"
)

// ─────────────────────────────────────────────────────────────
// Importer — watches a drop directory for page JSON documents
// ─────────────────────────────────────────────────────────────

// Importer watches a directory for page documents (a single page or an
// array of pages, the same shape the backup snapshots use) and imports
// anything dropped there as new pages.
type Importer struct {
	store   *store.Store
	dir     string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

func NewImporter(st *store.Store, dir string) *Importer {
	return &Importer{store: st, dir: dir}
}

// Start creates the drop directory if needed and begins watching it.
func (im *Importer) Start() error {
	if err := os.MkdirAll(im.dir, 0755); err != nil {
		return fmt.Errorf("create import dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(im.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", im.dir, err)
	}
	im.watcher = watcher
	im.stopCh = make(chan struct{})
	go im.loop()
	return nil
}

// Stop terminates the watch loop.
func (im *Importer) Stop() {
	if im.stopCh != nil {
		close(im.stopCh)
		im.stopCh = nil
	}
	if im.watcher != nil {
		im.watcher.Close()
		im.watcher = nil
	}
}

func (im *Importer) loop() {
	for {
		select {
		case ev, ok := <-im.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if n, err := im.ImportFile(ev.Name); err != nil {
				log.Printf("import: %s: %v", filepath.Base(ev.Name), err)
			} else if n > 0 {
				log.Printf("import: %s: imported %d page(s)", filepath.Base(ev.Name), n)
			}
		case err, ok := <-im.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("import: watcher error: %v", err)
		case <-im.stopCh:
			return
		}
	}
}

// ImportFile reads a page document and adds its pages to the store.
// Accepts either a single page object or an array of pages. Returns the
// number of pages imported.
func (im *Importer) ImportFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	var pages []domain.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		var single domain.Page
		if err := json.Unmarshal(data, &single); err != nil {
			return 0, fmt.Errorf("not a page document: %w", err)
		}
		pages = []domain.Page{single}
	}

	imported := 0
	for _, p := range pages {
		if p.Name == "" {
			continue
		}
		im.store.ImportPage(p)
		imported++
	}
	return imported, nil
}
