package geometry

import (
	"image"
	"math"
)

// Point is a 2D pixel coordinate.
type Point struct {
	X float64
	Y float64
}

// Quad is a quadrilateral in TL, TR, BR, BL order.
type Quad [4]Point

// NormalizedImage is the output of document normalization.
type NormalizedImage struct {
	Image             image.Image
	SourceContour     *Quad
	RotationAngle     float64
	AppliedCorrection bool
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns the angle at vertex b formed by points a-b-c, in degrees.
func Angle(a, b, c Point) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	dot := v1x*v2x + v1y*v2y
	m1 := math.Sqrt(v1x*v1x + v1y*v1y)
	m2 := math.Sqrt(v2x*v2x + v2y*v2y)
	if m1 == 0 || m2 == 0 {
		return 0
	}
	cos := dot / (m1 * m2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// ShoelaceArea returns the absolute polygon area via the shoelace formula.
func ShoelaceArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Area returns the quad's area.
func (q Quad) Area() float64 {
	return ShoelaceArea(q[:])
}

// AspectRatio returns width/height of the quad using averaged edge lengths.
func (q Quad) AspectRatio() float64 {
	w := (Dist(q[0], q[1]) + Dist(q[3], q[2])) / 2
	h := (Dist(q[0], q[3]) + Dist(q[1], q[2])) / 2
	if h == 0 {
		return 0
	}
	return w / h
}

// CornerAngles returns the four interior angles in degrees.
func (q Quad) CornerAngles() [4]float64 {
	var out [4]float64
	for i := range q {
		prev := q[(i+3)%4]
		next := q[(i+1)%4]
		out[i] = Angle(prev, q[i], next)
	}
	return out
}

// RotationAngle returns the top edge's deviation from horizontal, in degrees.
func (q Quad) RotationAngle() float64 {
	return math.Atan2(q[1].Y-q[0].Y, q[1].X-q[0].X) * 180 / math.Pi
}
