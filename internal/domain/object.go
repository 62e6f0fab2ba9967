package domain

type ObjectType string

const (
	ObjectRectangle  ObjectType = "rectangle"
	ObjectCircle     ObjectType = "circle"
	ObjectDiamond    ObjectType = "diamond"
	ObjectText       ObjectType = "text"
	ObjectStickyNote ObjectType = "sticky-note"
	ObjectActor      ObjectType = "actor"
	ObjectUsecase    ObjectType = "usecase"
)

// CanvasObject is a placed shape on a page.
type CanvasObject struct {
	ID          string     `json:"id"`
	Type        ObjectType `json:"type"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Rotation    float64    `json:"rotation"`
	Text        string     `json:"text"`
	FillColor   string     `json:"fillColor"`
	StrokeColor string     `json:"strokeColor"`
	StrokeWidth int        `json:"strokeWidth"`
	ZIndex      int        `json:"zIndex"`
}

// ObjectPatch is a partial update for a CanvasObject. Nil fields are left
// untouched, which lets the frontend send only the properties that changed.
type ObjectPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	Text        *string  `json:"text,omitempty"`
	FillColor   *string  `json:"fillColor,omitempty"`
	StrokeColor *string  `json:"strokeColor,omitempty"`
	StrokeWidth *int     `json:"strokeWidth,omitempty"`
	ZIndex      *int     `json:"zIndex,omitempty"`
}

// IsSquareType reports whether the type must keep width == height.
func IsSquareType(t ObjectType) bool {
	return t == ObjectCircle || t == ObjectDiamond
}

// Size is a default width/height pair for a shape type.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var defaultSizes = map[ObjectType]Size{
	ObjectRectangle:  {120, 80},
	ObjectCircle:     {100, 100},
	ObjectDiamond:    {120, 120},
	ObjectText:       {150, 50},
	ObjectStickyNote: {150, 150},
	ObjectActor:      {80, 120},
	ObjectUsecase:    {140, 70},
}

// DefaultSize returns the placement size for a shape type.
// Unknown types fall back to 100×100.
func DefaultSize(t ObjectType) Size {
	if s, ok := defaultSizes[t]; ok {
		return s
	}
	return Size{100, 100}
}
