package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"whiteboard/internal/store"
)

// ─────────────────────────────────────────────────────────────
// Backup — scheduled JSON snapshots of all pages
// ─────────────────────────────────────────────────────────────

// DefaultBackupSchedule runs a snapshot every 30 minutes.
const DefaultBackupSchedule = "@every 30m"

const snapshotPrefix = "pages-"

// Backup periodically serializes the full page list to timestamped JSON
// files. Snapshots are a safety net alongside the SQLite store; the
// oldest are pruned past the retention count.
type Backup struct {
	store *store.Store
	dir   string
	keep  int
	sched *cron.Cron
}

// NewBackup creates a Backup writing into dir, keeping the latest `keep`
// snapshots.
func NewBackup(st *store.Store, dir string, keep int) *Backup {
	return &Backup{store: st, dir: dir, keep: keep}
}

// Start schedules snapshots with the given cron spec (e.g. "@every 30m").
func (b *Backup) Start(spec string) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := b.Snapshot(); err != nil {
			log.Printf("backup: snapshot failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule backup %q: %w", spec, err)
	}
	c.Start()
	b.sched = c
	return nil
}

// Stop halts the schedule. A snapshot already running is left to finish.
func (b *Backup) Stop() {
	if b.sched != nil {
		b.sched.Stop()
		b.sched = nil
	}
}

// Snapshot writes all pages to a timestamped JSON file and prunes old
// snapshots. Returns the written file path.
func (b *Backup) Snapshot() (string, error) {
	pages := b.store.Pages()
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal pages: %w", err)
	}

	name := snapshotPrefix + time.Now().Format("20060102-150405") + ".json"
	path := filepath.Join(b.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	b.prune()
	return path, nil
}

// prune removes the oldest snapshots beyond the retention count.
func (b *Backup) prune() {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return
	}
	var snapshots []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), snapshotPrefix) && strings.HasSuffix(e.Name(), ".json") {
			snapshots = append(snapshots, e.Name())
		}
	}
	if len(snapshots) <= b.keep {
		return
	}
	// Timestamped names sort chronologically
	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-b.keep] {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			log.Printf("backup: prune %s: %v", name, err)
		}
	}
}
