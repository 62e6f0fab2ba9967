package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	mcpserver "whiteboard/internal/mcp"
	"whiteboard/internal/storage"
	"whiteboard/internal/store"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It opens the same database the desktop app uses and serves diagram tools
// until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "whiteboard")
	dbPath := filepath.Join(dataDir, "whiteboard.db")

	db, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	st := store.New(storage.NewPageStore(db), noopEmitter{})
	if err := st.Load(ctx); err != nil {
		log.Fatalf("Failed to load pages: %v", err)
	}

	mcpSrv := mcpserver.New(st)

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}

	// Flush anything still sitting inside the debounce window.
	if err := st.Save(context.Background()); err != nil {
		log.Printf("[MCP] Final save failed: %v", err)
	}
}
