package geometry

import (
	"image"
	"math"
	"sort"
)

// region is a connected component of edge pixels.
type region struct {
	pixels []image.Point
	bounds image.Rectangle
}

// findEdgeComponents collects 8-connected components of edge pixels, largest
// first. Components smaller than minPixels are discarded.
func findEdgeComponents(edges *image.Gray, minPixels int) []region {
	bounds := edges.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	visited := make([]bool, w*h)
	idx := func(x, y int) int { return (y-bounds.Min.Y)*w + (x - bounds.Min.X) }

	var regions []region
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if visited[idx(x, y)] || edges.GrayAt(x, y).Y == 0 {
				continue
			}
			// flood fill
			var r region
			r.bounds = image.Rect(x, y, x+1, y+1)
			stack := []image.Point{{X: x, Y: y}}
			visited[idx(x, y)] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				r.pixels = append(r.pixels, p)
				r.bounds = r.bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
							continue
						}
						if !visited[idx(nx, ny)] && edges.GrayAt(nx, ny).Y != 0 {
							visited[idx(nx, ny)] = true
							stack = append(stack, image.Point{X: nx, Y: ny})
						}
					}
				}
			}
			if len(r.pixels) >= minPixels {
				regions = append(regions, r)
			}
		}
	}

	sort.Slice(regions, func(i, j int) bool {
		return len(regions[i].pixels) > len(regions[j].pixels)
	})
	return regions
}

// extremeQuad derives a quadrilateral from a component's extreme points:
// min(x+y) is top-left, max(x+y) bottom-right, min(x-y) bottom-left,
// max(x-y) top-right.
func extremeQuad(r region) Quad {
	tl, tr, br, bl := r.pixels[0], r.pixels[0], r.pixels[0], r.pixels[0]
	for _, p := range r.pixels {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	return Quad{
		{X: float64(tl.X), Y: float64(tl.Y)},
		{X: float64(tr.X), Y: float64(tr.Y)},
		{X: float64(br.X), Y: float64(br.Y)},
		{X: float64(bl.X), Y: float64(bl.Y)},
	}
}

// scoreQuad rates how much q resembles a photographed rectangular document
// inside an imgW x imgH frame. Returns a score in [0,1].
func scoreQuad(q Quad, r region, imgW, imgH int) float64 {
	imgArea := float64(imgW * imgH)
	area := q.Area()
	if imgArea == 0 || area == 0 {
		return 0
	}

	// area share: documents fill a large part of the frame
	areaRatio := area / imgArea
	areaScore := areaRatio
	if areaScore > 0.9 {
		// touching the frame on all sides usually means we traced the frame itself
		areaScore = 0.5
	}

	// aspect ratio: paper formats sit between ~0.6 and ~1.7
	ar := q.AspectRatio()
	aspectScore := 0.0
	if ar > 1 {
		ar = 1 / ar
	}
	if ar >= 0.55 {
		aspectScore = ar
	}

	// corners near 90 degrees
	angleScore := 1.0
	for _, a := range q.CornerAngles() {
		dev := math.Abs(a-90) / 90
		if dev > 1 {
			dev = 1
		}
		angleScore *= 1 - dev
	}

	// rectangularity: quad area vs its bounding box area
	bb := float64(r.bounds.Dx() * r.bounds.Dy())
	rectScore := 0.0
	if bb > 0 {
		rectScore = area / bb
		if rectScore > 1 {
			rectScore = 1
		}
	}

	return 0.35*areaScore + 0.2*aspectScore + 0.25*angleScore + 0.2*rectScore
}

// detectDocumentQuad runs the full contour search over a binary edge map.
// Returns the best quad and its score; ok=false when nothing plausible exists.
func detectDocumentQuad(edges *image.Gray, minScore float64) (Quad, float64, bool) {
	bounds := edges.Bounds()
	minPixels := (bounds.Dx() + bounds.Dy()) / 4
	if minPixels < 32 {
		minPixels = 32
	}

	regions := findEdgeComponents(edges, minPixels)
	if len(regions) > 5 {
		regions = regions[:5]
	}

	var best Quad
	bestScore := 0.0
	for _, r := range regions {
		q := extremeQuad(r)
		s := scoreQuad(q, r, bounds.Dx(), bounds.Dy())
		if s > bestScore {
			best = q
			bestScore = s
		}
	}
	if bestScore < minScore {
		return Quad{}, bestScore, false
	}
	return best, bestScore, true
}
