package geometry

import (
	"image"
	"image/color"
	"math"
)

// homography maps destination coordinates back to source coordinates.
// Stored row-major; h[8] is fixed to 1.
type homography [9]float64

func (h homography) apply(x, y float64) (float64, float64) {
	d := h[6]*x + h[7]*y + h[8]
	if d == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / d, (h[3]*x + h[4]*y + h[5]) / d
}

// solveHomography computes the projective transform taking the canonical
// rectangle (0,0)-(w,0)-(w,h)-(0,h) onto the source quad q. Solved as an
// 8x8 linear system by Gaussian elimination with partial pivoting.
func solveHomography(q Quad, w, h float64) (homography, bool) {
	dst := [4]Point{{0, 0}, {w, 0}, {w, h}, {0, h}}

	var m [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := q[i].X, q[i].Y
		dx, dy := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{dx, dy, 1, 0, 0, 0, -sx * dx, -sx * dy, sx}
		m[2*i+1] = [9]float64{0, 0, 0, dx, dy, 1, -sy * dx, -sy * dy, sy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-10 {
			return homography{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			f := m[row][col] / m[col][col]
			for k := col; k < 9; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	var out homography
	for i := 0; i < 8; i++ {
		out[i] = m[i][8] / m[i][i]
	}
	out[8] = 1
	return out, true
}

// warpPerspective samples the source image through the homography into a
// canonical w x h rectangle using bilinear interpolation.
func warpPerspective(src image.Image, q Quad, w, h int) (*image.RGBA, bool) {
	hom, ok := solveHomography(q, float64(w), float64(h))
	if !ok {
		return nil, false
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := hom.apply(float64(x), float64(y))
			dst.Set(x, y, bilinear(src, bounds, sx, sy))
		}
	}
	return dst, true
}

func bilinear(src image.Image, bounds image.Rectangle, x, y float64) color.Color {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	clamp := func(px, py int) (uint32, uint32, uint32, uint32) {
		if px < bounds.Min.X {
			px = bounds.Min.X
		} else if px >= bounds.Max.X {
			px = bounds.Max.X - 1
		}
		if py < bounds.Min.Y {
			py = bounds.Min.Y
		} else if py >= bounds.Max.Y {
			py = bounds.Max.Y - 1
		}
		return src.At(px, py).RGBA()
	}

	mix := func(a, b uint32, t float64) float64 { return float64(a)*(1-t) + float64(b)*t }

	r00, g00, b00, a00 := clamp(x0, y0)
	r10, g10, b10, a10 := clamp(x0+1, y0)
	r01, g01, b01, a01 := clamp(x0, y0+1)
	r11, g11, b11, a11 := clamp(x0+1, y0+1)

	top := [4]float64{mix(r00, r10, fx), mix(g00, g10, fx), mix(b00, b10, fx), mix(a00, a10, fx)}
	bot := [4]float64{mix(r01, r11, fx), mix(g01, g11, fx), mix(b01, b11, fx), mix(a01, a11, fx)}

	return color.RGBA64{
		R: uint16(top[0]*(1-fy) + bot[0]*fy),
		G: uint16(top[1]*(1-fy) + bot[1]*fy),
		B: uint16(top[2]*(1-fy) + bot[2]*fy),
		A: uint16(top[3]*(1-fy) + bot[3]*fy),
	}
}
