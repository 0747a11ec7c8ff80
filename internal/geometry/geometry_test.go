package geometry

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestDist(t *testing.T) {
	if got := Dist(Point{0, 0}, Point{3, 4}); got != 5 {
		t.Errorf("Dist = %f, want 5", got)
	}
	if got := Dist(Point{2, 2}, Point{2, 2}); got != 0 {
		t.Errorf("Dist of same point = %f, want 0", got)
	}
}

func TestAngleRightCorner(t *testing.T) {
	// corner of an axis-aligned square
	got := Angle(Point{0, 1}, Point{0, 0}, Point{1, 0})
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("Angle = %f, want 90", got)
	}
}

func TestAngleStraightLine(t *testing.T) {
	got := Angle(Point{-1, 0}, Point{0, 0}, Point{1, 0})
	if math.Abs(got-180) > 1e-9 {
		t.Errorf("Angle = %f, want 180", got)
	}
}

func TestShoelaceArea(t *testing.T) {
	square := []Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if got := ShoelaceArea(square); got != 16 {
		t.Errorf("square area = %f, want 16", got)
	}
	triangle := []Point{{0, 0}, {4, 0}, {0, 3}}
	if got := ShoelaceArea(triangle); got != 6 {
		t.Errorf("triangle area = %f, want 6", got)
	}
	if got := ShoelaceArea([]Point{{0, 0}, {1, 1}}); got != 0 {
		t.Errorf("degenerate area = %f, want 0", got)
	}
}

func TestQuadProperties(t *testing.T) {
	q := Quad{{0, 0}, {200, 0}, {200, 100}, {0, 100}}
	if got := q.Area(); got != 20000 {
		t.Errorf("Area = %f, want 20000", got)
	}
	if got := q.AspectRatio(); math.Abs(got-2) > 1e-9 {
		t.Errorf("AspectRatio = %f, want 2", got)
	}
	for i, a := range q.CornerAngles() {
		if math.Abs(a-90) > 1e-9 {
			t.Errorf("corner %d angle = %f, want 90", i, a)
		}
	}
	if got := q.RotationAngle(); got != 0 {
		t.Errorf("RotationAngle = %f, want 0", got)
	}
}

func TestQuadRotationAngle(t *testing.T) {
	tilted := Quad{{0, 0}, {100, 100}, {0, 200}, {-100, 100}}
	if got := tilted.RotationAngle(); math.Abs(got-45) > 1e-9 {
		t.Errorf("RotationAngle = %f, want 45", got)
	}
}

func TestScoreQuadPrefersRectangles(t *testing.T) {
	imgW, imgH := 100, 100

	rect := Quad{{10, 10}, {90, 10}, {90, 90}, {10, 90}}
	rectRegion := region{bounds: image.Rect(10, 10, 91, 91)}

	skewed := Quad{{10, 10}, {90, 30}, {70, 90}, {5, 60}}
	skewedRegion := region{bounds: image.Rect(5, 10, 91, 91)}

	rs := scoreQuad(rect, rectRegion, imgW, imgH)
	ss := scoreQuad(skewed, skewedRegion, imgW, imgH)
	if rs <= ss {
		t.Errorf("rectangle score %f not above skewed score %f", rs, ss)
	}
}

func TestScoreQuadRejectsFrameTrace(t *testing.T) {
	imgW, imgH := 100, 100
	full := Quad{{0, 0}, {99, 0}, {99, 99}, {0, 99}}
	fullRegion := region{bounds: image.Rect(0, 0, 100, 100)}
	inner := Quad{{10, 10}, {85, 10}, {85, 85}, {10, 85}}
	innerRegion := region{bounds: image.Rect(10, 10, 86, 86)}

	if fs, is := scoreQuad(full, fullRegion, imgW, imgH), scoreQuad(inner, innerRegion, imgW, imgH); fs >= is {
		t.Errorf("frame-sized quad score %f should fall below document-sized %f", fs, is)
	}
}

// drawRectOutline marks the perimeter of the given rectangle as edge pixels.
func drawRectOutline(edges *image.Gray, r image.Rectangle) {
	on := color.Gray{Y: 255}
	for x := r.Min.X; x < r.Max.X; x++ {
		edges.SetGray(x, r.Min.Y, on)
		edges.SetGray(x, r.Max.Y-1, on)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		edges.SetGray(r.Min.X, y, on)
		edges.SetGray(r.Max.X-1, y, on)
	}
}

func TestDetectDocumentQuad(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 120, 120))
	drawRectOutline(edges, image.Rect(20, 20, 101, 101))

	q, score, ok := detectDocumentQuad(edges, 0.45)
	if !ok {
		t.Fatalf("no quad found, score %f", score)
	}
	want := Quad{{20, 20}, {100, 20}, {100, 100}, {20, 100}}
	for i := range q {
		if Dist(q[i], want[i]) > 2 {
			t.Errorf("corner %d = %+v, want near %+v", i, q[i], want[i])
		}
	}
}

func TestDetectDocumentQuadEmpty(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 120, 120))
	if _, _, ok := detectDocumentQuad(edges, 0.45); ok {
		t.Error("found a quad in an empty edge map")
	}
}
