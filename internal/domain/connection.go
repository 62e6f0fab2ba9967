package domain

type ArrowType string

const (
	ArrowTypeArrow ArrowType = "arrow"
	ArrowTypeLine  ArrowType = "line"
)

// Connection is a directed link between two objects on the same page.
// SourceHandle and TargetHandle name the anchor a link end is attached to
// (e.g. "right-source", "left-target"); empty means auto.
type Connection struct {
	ID           string    `json:"id"`
	SourceID     string    `json:"sourceId"`
	TargetID     string    `json:"targetId"`
	SourceHandle string    `json:"sourceHandle"`
	TargetHandle string    `json:"targetHandle"`
	StrokeColor  string    `json:"strokeColor"`
	StrokeWidth  int       `json:"strokeWidth"`
	ArrowType    ArrowType `json:"arrowType"`
}

// ValidConnection reports whether both endpoints resolve to objects
// present in the given id set.
func ValidConnection(c Connection, objectIDs map[string]bool) bool {
	return c.SourceID != "" && c.TargetID != "" &&
		objectIDs[c.SourceID] && objectIDs[c.TargetID]
}
