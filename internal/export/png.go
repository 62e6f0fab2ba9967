package export

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"whiteboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// PNG snapshot rendering of a page, from domain state
// ─────────────────────────────────────────────────────────────

const (
	padding    = 40.0
	background = "#f5f5f5"
	fontSize   = 14.0
)

// Render draws a page to a PNG image. Connections are drawn first so they
// sit behind the shapes; the arrowhead sits at the SOURCE end of each
// connection, matching the canvas convention.
func Render(page domain.Page) ([]byte, error) {
	if len(page.Objects) == 0 {
		return nil, fmt.Errorf("page %q has nothing to export", page.Name)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, o := range page.Objects {
		minX = math.Min(minX, o.X)
		minY = math.Min(minY, o.Y)
		maxX = math.Max(maxX, o.X+o.Width)
		maxY = math.Max(maxY, o.Y+o.Height)
	}
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding

	dc := gg.NewContext(int(maxX-minX), int(maxY-minY))
	dc.SetHexColor(background)
	dc.Clear()

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	objects := make(map[string]domain.CanvasObject, len(page.Objects))
	for _, o := range page.Objects {
		objects[o.ID] = o
	}

	for _, c := range page.Connections {
		drawConnection(dc, c, objects, minX, minY)
	}

	// Stacking order: lower z-index first
	ordered := append([]domain.CanvasObject(nil), page.Objects...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })
	for _, o := range ordered {
		drawObject(dc, o, minX, minY)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ── connections ────────────────────────────────────────────

func drawConnection(dc *gg.Context, c domain.Connection, objects map[string]domain.CanvasObject, minX, minY float64) {
	src, ok := objects[c.SourceID]
	if !ok {
		return
	}
	dst, ok := objects[c.TargetID]
	if !ok {
		return
	}

	srcSide, dstSide := handleSide(c.SourceHandle), handleSide(c.TargetHandle)
	if srcSide == "" || dstSide == "" {
		srcSide, dstSide = autoSides(src, dst)
	}
	x1, y1 := anchorPoint(src, srcSide)
	x2, y2 := anchorPoint(dst, dstSide)
	x1, y1 = x1-minX, y1-minY
	x2, y2 = x2-minX, y2-minY

	stroke := c.StrokeColor
	if stroke == "" {
		stroke = "#000000"
	}
	width := float64(c.StrokeWidth)
	if width <= 0 {
		width = 2
	}
	dc.SetHexColor(stroke)
	dc.SetLineWidth(width)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()

	// Arrowhead at the source end: the arrow denotes the link's start.
	if c.ArrowType == domain.ArrowTypeArrow {
		drawArrowhead(dc, x2, y2, x1, y1)
	}
}

func drawArrowhead(dc *gg.Context, fromX, fromY, tipX, tipY float64) {
	dx := tipX - fromX
	dy := tipY - fromY
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const arrowSize = 10.0
	const arrowAngle = 0.5

	baseX1 := tipX - arrowSize*dx + arrowSize*dy*arrowAngle
	baseY1 := tipY - arrowSize*dy - arrowSize*dx*arrowAngle
	baseX2 := tipX - arrowSize*dx - arrowSize*dy*arrowAngle
	baseY2 := tipY - arrowSize*dy + arrowSize*dx*arrowAngle

	dc.MoveTo(tipX, tipY)
	dc.LineTo(baseX1, baseY1)
	dc.LineTo(baseX2, baseY2)
	dc.ClosePath()
	dc.Fill()
}

// handleSide extracts the side name from an anchor label like
// "right-source" or "top-target".
func handleSide(handle string) string {
	for _, side := range []string{"top", "bottom", "left", "right"} {
		if len(handle) >= len(side) && handle[:len(side)] == side {
			return side
		}
	}
	return ""
}

// autoSides picks facing sides based on the relative position of the two
// shapes, the same heuristic the canvas uses for auto-routed arrows.
func autoSides(src, dst domain.CanvasObject) (string, string) {
	dx := (dst.X + dst.Width/2) - (src.X + src.Width/2)
	dy := (dst.Y + dst.Height/2) - (src.Y + src.Height/2)
	if math.Abs(dy) > math.Abs(dx) {
		if dy > 0 {
			return "bottom", "top"
		}
		return "top", "bottom"
	}
	if dx > 0 {
		return "right", "left"
	}
	return "left", "right"
}

func anchorPoint(o domain.CanvasObject, side string) (float64, float64) {
	switch side {
	case "top":
		return o.X + o.Width/2, o.Y
	case "bottom":
		return o.X + o.Width/2, o.Y + o.Height
	case "left":
		return o.X, o.Y + o.Height/2
	case "right":
		return o.X + o.Width, o.Y + o.Height/2
	}
	return o.X + o.Width/2, o.Y + o.Height/2
}

// ── shapes ─────────────────────────────────────────────────

func drawObject(dc *gg.Context, o domain.CanvasObject, minX, minY float64) {
	x, y := o.X-minX, o.Y-minY
	cx, cy := x+o.Width/2, y+o.Height/2

	fill := o.FillColor
	if fill == "" {
		fill = "#ffffff"
	}
	stroke := o.StrokeColor
	if stroke == "" {
		stroke = "#000000"
	}
	width := float64(o.StrokeWidth)
	if width <= 0 {
		width = 2
	}

	dc.Push()
	if o.Rotation != 0 {
		dc.RotateAbout(gg.Radians(o.Rotation), cx, cy)
	}

	switch o.Type {
	case domain.ObjectRectangle:
		dc.DrawRectangle(x, y, o.Width, o.Height)
		fillStroke(dc, fill, stroke, width)
	case domain.ObjectStickyNote:
		dc.DrawRoundedRectangle(x, y, o.Width, o.Height, 8)
		fillStroke(dc, fill, stroke, width)
	case domain.ObjectCircle, domain.ObjectUsecase:
		dc.DrawEllipse(cx, cy, o.Width/2, o.Height/2)
		fillStroke(dc, fill, stroke, width)
	case domain.ObjectDiamond:
		dc.MoveTo(cx, y)
		dc.LineTo(x+o.Width, cy)
		dc.LineTo(cx, y+o.Height)
		dc.LineTo(x, cy)
		dc.ClosePath()
		fillStroke(dc, fill, stroke, width)
	case domain.ObjectActor:
		drawActor(dc, x, y, o.Width, o.Height, stroke, width)
	case domain.ObjectText:
		// no outline, text only
	}

	if o.Text != "" {
		dc.SetHexColor("#000000")
		textY := cy
		if o.Type == domain.ObjectActor {
			textY = y + o.Height + fontSize
		}
		dc.DrawStringWrapped(o.Text, cx, textY, 0.5, 0.5, o.Width, 1.3, gg.AlignCenter)
	}

	dc.Pop()
}

func fillStroke(dc *gg.Context, fill, stroke string, width float64) {
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor(stroke)
	dc.SetLineWidth(width)
	dc.Stroke()
}

// drawActor renders the stick figure used for the actor shape.
func drawActor(dc *gg.Context, x, y, w, h float64, stroke string, width float64) {
	dc.SetHexColor(stroke)
	dc.SetLineWidth(width)

	cx := x + w/2
	headR := h / 6
	dc.DrawCircle(cx, y+headR, headR)
	dc.Stroke()

	neckY := y + headR*2
	hipY := y + h*0.65
	dc.DrawLine(cx, neckY, cx, hipY) // torso
	dc.Stroke()
	dc.DrawLine(x, y+h*0.4, x+w, y+h*0.4) // arms
	dc.Stroke()
	dc.DrawLine(cx, hipY, x, y+h) // legs
	dc.Stroke()
	dc.DrawLine(cx, hipY, x+w, y+h)
	dc.Stroke()
}
