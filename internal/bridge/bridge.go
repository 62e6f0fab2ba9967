package bridge

import (
	"whiteboard/internal/domain"
	"whiteboard/internal/store"
)

// ─────────────────────────────────────────────────────────────
// Bridge — two-way mapping between the store's domain graph and
// the visual graph layer (nodes/edges rendered by the frontend)
// ─────────────────────────────────────────────────────────────

// Node is the visual-graph document for one CanvasObject. The frontend
// renders it and wires the text-edit callback by id.
type Node struct {
	ID     string              `json:"id"`
	Type   domain.ObjectType   `json:"type"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Object domain.CanvasObject `json:"object"`
}

// EdgeMarker is the arrow marker descriptor. By convention the marker is
// rendered at the SOURCE end of the edge: the arrowhead denotes where the
// link starts, not where it ends.
type EdgeMarker struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color"`
}

// EdgeStyle is the stroke styling for an edge.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// Edge is the visual-graph document for one Connection.
type Edge struct {
	ID           string      `json:"id"`
	Source       string      `json:"source"`
	Target       string      `json:"target"`
	SourceHandle string      `json:"sourceHandle"`
	TargetHandle string      `json:"targetHandle"`
	Type         string      `json:"type"`
	Selectable   bool        `json:"selectable"`
	MarkerStart  *EdgeMarker `json:"markerStart,omitempty"`
	Style        EdgeStyle   `json:"style"`
}

// NodeChange is a node event reported by the visual layer.
type NodeChange struct {
	Type     string   `json:"type"` // "position" or "remove"
	ID       string   `json:"id"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Dragging bool     `json:"dragging"`
}

// EdgeChange is an edge event reported by the visual layer.
type EdgeChange struct {
	Type string `json:"type"` // "remove"
	ID   string `json:"id"`
}

// ConnectParams describes a completed new-edge gesture.
type ConnectParams struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// SelectionChange is a selection event from the visual layer. Suppress
// is set by the UI event source when a panel interaction is known to
// trigger a spurious deselection that must be ignored.
type SelectionChange struct {
	IDs      []string `json:"ids"`
	Suppress bool     `json:"suppress"`
}

// Bridge keeps the visual graph consistent with the domain graph in both
// directions without feedback loops.
type Bridge struct {
	store *store.Store
}

func New(s *store.Store) *Bridge {
	return &Bridge{store: s}
}

// ── Domain → visual ────────────────────────────────────────

// Nodes produces one visual node per object on the current page.
func (b *Bridge) Nodes() []Node {
	page := b.store.CurrentPage()
	if page == nil {
		return []Node{}
	}
	nodes := make([]Node, 0, len(page.Objects))
	for _, o := range page.Objects {
		nodes = append(nodes, Node{
			ID:     o.ID,
			Type:   o.Type,
			X:      o.X,
			Y:      o.Y,
			Object: o,
		})
	}
	return nodes
}

// Edges produces one visual edge per connection on the current page,
// directed source → target with the arrow marker at the source end.
func (b *Bridge) Edges() []Edge {
	page := b.store.CurrentPage()
	if page == nil {
		return []Edge{}
	}
	edges := make([]Edge, 0, len(page.Connections))
	for _, c := range page.Connections {
		e := Edge{
			ID:           c.ID,
			Source:       c.SourceID,
			Target:       c.TargetID,
			SourceHandle: c.SourceHandle,
			TargetHandle: c.TargetHandle,
			Type:         "smoothstep",
			Selectable:   true,
			Style:        EdgeStyle{Stroke: c.StrokeColor, StrokeWidth: c.StrokeWidth},
		}
		if c.ArrowType == domain.ArrowTypeArrow {
			e.MarkerStart = &EdgeMarker{Type: "arrowclosed", Width: 20, Height: 20, Color: c.StrokeColor}
		}
		edges = append(edges, e)
	}
	return edges
}

// ── Visual → domain ────────────────────────────────────────

// ApplyNodeChanges forwards settled node events to the store. Position
// updates are applied only once the drag has ended; mid-drag positions
// would flood the store and the debounced save.
func (b *Bridge) ApplyNodeChanges(changes []NodeChange) {
	for _, ch := range changes {
		switch ch.Type {
		case "position":
			if ch.Dragging || ch.X == nil || ch.Y == nil {
				continue
			}
			b.store.UpdateObject(ch.ID, domain.ObjectPatch{X: ch.X, Y: ch.Y})
		case "remove":
			b.store.DeleteObject(ch.ID)
		}
	}
}

// ApplyEdgeChanges forwards edge removal events to the store.
func (b *Bridge) ApplyEdgeChanges(changes []EdgeChange) {
	for _, ch := range changes {
		if ch.Type == "remove" {
			b.store.DeleteConnection(ch.ID)
		}
	}
}

// Connect turns a completed new-edge gesture into a connection with
// default styling. A gesture missing either endpoint is an incomplete
// drag and is discarded silently.
func (b *Bridge) Connect(params ConnectParams) *domain.Connection {
	if params.Source == "" || params.Target == "" {
		return nil
	}
	return b.store.AddConnection(domain.Connection{
		SourceID:     params.Source,
		TargetID:     params.Target,
		SourceHandle: params.SourceHandle,
		TargetHandle: params.TargetHandle,
		StrokeColor:  "#000000",
		StrokeWidth:  2,
		ArrowType:    domain.ArrowTypeArrow,
	})
}

// PlaceObject adds a shape for the given tool, centered on the already
// screen-to-canvas-transformed point, using the shape's default size.
// Non-placing tools (select, pan, connection) are ignored.
func (b *Bridge) PlaceObject(tool domain.Tool, x, y float64) *domain.CanvasObject {
	switch tool {
	case domain.ToolSelect, domain.ToolPan, domain.ToolConnection, "":
		return nil
	}
	size := domain.DefaultSize(domain.ObjectType(tool))
	return b.store.AddObject(domain.CanvasObject{
		Type:        domain.ObjectType(tool),
		X:           x - size.Width/2,
		Y:           y - size.Height/2,
		Width:       size.Width,
		Height:      size.Height,
		Text:        "",
		FillColor:   "#ffffff",
		StrokeColor: "#000000",
		StrokeWidth: 2,
	})
}

// ReconcileSelection applies a selection event from the visual layer.
// Redundant notifications are dropped (same length, same ids in order)
// to avoid oscillating with the store's own notifications. A deselection
// carrying the suppress token — a panel interaction stealing focus — is
// ignored entirely.
func (b *Bridge) ReconcileSelection(change SelectionChange) {
	current := b.store.Selection()

	if change.Suppress && len(change.IDs) == 0 && len(current) > 0 {
		return
	}

	if len(change.IDs) == len(current) {
		same := true
		for i, id := range change.IDs {
			if id != current[i] {
				same = false
				break
			}
		}
		if same {
			return
		}
	}

	b.store.SelectObjects(change.IDs)
}
