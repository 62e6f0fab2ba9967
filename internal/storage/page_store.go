package storage

import (
	"encoding/json"
	"fmt"

	"whiteboard/internal/domain"
)

// PageStore implements domain.PageStore using SQLite. Durability is
// whole-page: every put writes the complete page document, objects and
// connections serialized as JSON columns.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

func (s *PageStore) GetAllPages() ([]domain.Page, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, objects_json, connections_json, created_at, updated_at FROM pages ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("get all pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		var objectsJSON, connectionsJSON string
		if err := rows.Scan(&p.ID, &p.Name, &objectsJSON, &connectionsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if err := json.Unmarshal([]byte(objectsJSON), &p.Objects); err != nil {
			return nil, fmt.Errorf("parse objects for page %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(connectionsJSON), &p.Connections); err != nil {
			return nil, fmt.Errorf("parse connections for page %s: %w", p.ID, err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PutPage inserts or fully overwrites the record for p.ID. Applying the
// same page twice yields the same stored state.
func (s *PageStore) PutPage(p domain.Page) error {
	objectsJSON, err := json.Marshal(p.Objects)
	if err != nil {
		return fmt.Errorf("%w: marshal objects: %v", ErrWriteFailed, err)
	}
	connectionsJSON, err := json.Marshal(p.Connections)
	if err != nil {
		return fmt.Errorf("%w: marshal connections: %v", ErrWriteFailed, err)
	}
	_, err = s.db.conn.Exec(
		`INSERT INTO pages (id, name, objects_json, connections_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			objects_json = excluded.objects_json,
			connections_json = excluded.connections_json,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(objectsJSON), string(connectionsJSON), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: put page %s: %v", ErrWriteFailed, p.ID, err)
	}
	return nil
}

func (s *PageStore) DeletePage(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete page %s: %v", ErrWriteFailed, id, err)
	}
	return nil
}
