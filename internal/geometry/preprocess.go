package geometry

import (
	"image"
	"image/color"
)

// toGrayscale converts any image to 8-bit grayscale.
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// boxBlur applies a radius-1 box blur to suppress sensor noise before edge
// detection.
func boxBlur(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sum, count int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
						continue
					}
					sum += int(src.GrayAt(nx, ny).Y)
					count++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / count)})
		}
	}
	return dst
}

// sobelEdges computes gradient magnitude with 3x3 Sobel kernels and
// thresholds it into a binary edge map (255 = edge).
func sobelEdges(src *image.Gray, threshold int) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			gx := -int(src.GrayAt(x-1, y-1).Y) + int(src.GrayAt(x+1, y-1).Y) +
				-2*int(src.GrayAt(x-1, y).Y) + 2*int(src.GrayAt(x+1, y).Y) +
				-int(src.GrayAt(x-1, y+1).Y) + int(src.GrayAt(x+1, y+1).Y)
			gy := -int(src.GrayAt(x-1, y-1).Y) - 2*int(src.GrayAt(x, y-1).Y) - int(src.GrayAt(x+1, y-1).Y) +
				int(src.GrayAt(x-1, y+1).Y) + 2*int(src.GrayAt(x, y+1).Y) + int(src.GrayAt(x+1, y+1).Y)
			mag := gx*gx + gy*gy
			if mag > threshold*threshold {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}
