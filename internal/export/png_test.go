package export_test

import (
	"bytes"
	"image/png"
	"testing"

	"whiteboard/internal/domain"
	"whiteboard/internal/export"
)

// ─────────────────────────────────────────────────────────────
// PNG rendering
// ─────────────────────────────────────────────────────────────

func TestRender_EmptyPageFails(t *testing.T) {
	_, err := export.Render(domain.Page{Name: "empty"})
	if err == nil {
		t.Fatal("expected error for a page with no objects")
	}
}

func TestRender_ProducesDecodablePNG(t *testing.T) {
	page := domain.Page{
		Name: "demo",
		Objects: []domain.CanvasObject{
			{ID: "r", Type: domain.ObjectRectangle, X: 0, Y: 0, Width: 120, Height: 80, Text: "start", FillColor: "#ffffff", StrokeColor: "#000000"},
			{ID: "c", Type: domain.ObjectCircle, X: 200, Y: 0, Width: 100, Height: 100},
			{ID: "d", Type: domain.ObjectDiamond, X: 0, Y: 200, Width: 120, Height: 120},
			{ID: "a", Type: domain.ObjectActor, X: 200, Y: 200, Width: 80, Height: 120, Text: "User"},
			{ID: "t", Type: domain.ObjectText, X: 350, Y: 100, Width: 150, Height: 50, Text: "label"},
			{ID: "s", Type: domain.ObjectStickyNote, X: 350, Y: 200, Width: 150, Height: 150, Rotation: 5},
			{ID: "u", Type: domain.ObjectUsecase, X: 0, Y: 400, Width: 140, Height: 70, Text: "Login"},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceID: "r", TargetID: "c", ArrowType: domain.ArrowTypeArrow, StrokeColor: "#ff0000", StrokeWidth: 2},
			{ID: "c2", SourceID: "d", TargetID: "a", ArrowType: domain.ArrowTypeLine, SourceHandle: "right-source", TargetHandle: "left-target"},
		},
	}

	data, err := export.Render(page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}

	// Content bounds are 0..500 x 0..470, plus 40 padding on each side.
	bounds := img.Bounds()
	if bounds.Dx() != 580 || bounds.Dy() != 550 {
		t.Errorf("unexpected canvas size %dx%d, want 580x550", bounds.Dx(), bounds.Dy())
	}
}

func TestRender_DanglingConnectionIsSkipped(t *testing.T) {
	page := domain.Page{
		Name: "partial",
		Objects: []domain.CanvasObject{
			{ID: "r", Type: domain.ObjectRectangle, X: 0, Y: 0, Width: 120, Height: 80},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceID: "r", TargetID: "ghost", ArrowType: domain.ArrowTypeArrow},
		},
	}
	data, err := export.Render(page)
	if err != nil {
		t.Fatalf("a dangling connection must not break rendering: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
}
