package domain

import "time"

// Page is a named canvas. Objects and connections are unique by id;
// every connection's endpoints resolve within the same page's object set.
type Page struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Objects     []CanvasObject `json:"objects"`
	Connections []Connection   `json:"connections"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ObjectIDs returns the set of object ids on the page.
func (p *Page) ObjectIDs() map[string]bool {
	ids := make(map[string]bool, len(p.Objects))
	for _, o := range p.Objects {
		ids[o.ID] = true
	}
	return ids
}

// FindObject returns the object with the given id, or nil.
func (p *Page) FindObject(id string) *CanvasObject {
	for i := range p.Objects {
		if p.Objects[i].ID == id {
			return &p.Objects[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the page. Mutations always operate on
// fresh slices so that an in-flight save never observes a half-applied
// update.
func (p Page) Clone() Page {
	out := p
	out.Objects = append([]CanvasObject(nil), p.Objects...)
	out.Connections = append([]Connection(nil), p.Connections...)
	return out
}

// Viewport is the active page's camera. Ephemeral — not part of the
// durability contract.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Tool is the active editor tool. Shape types double as "place this
// shape on click" tools.
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolPan        Tool = "pan"
	ToolConnection Tool = "connection"
)

// PageStore is the durable store of whole-page records, keyed by page id.
type PageStore interface {
	// GetAllPages returns every stored page, oldest first.
	GetAllPages() ([]Page, error)
	// PutPage inserts or fully overwrites the record for page.ID.
	PutPage(p Page) error
	// DeletePage removes the record if present; absent ids are a no-op.
	DeletePage(id string) error
}
