package crop

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// analysisSize is the long side the image is reduced to before scoring
const analysisSize = 256

// SmartCrop keeps the size CenterAspectCrop would choose but slides the region toward the
// area with the most edge detail. Flat images stay centred.
func SmartCrop(img image.Image, aspect float64) Rect {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	base := CenterAspectCrop(w, h, aspect)
	if w == 0 || h == 0 || (base.Width == w && base.Height == h) {
		return base
	}

	small := imaging.Grayscale(imaging.Fit(img, analysisSize, analysisSize, imaging.Box))
	sw, sh := small.Bounds().Dx(), small.Bounds().Dy()
	scale := float64(sw) / float64(w)

	sum := edgeIntegral(small)
	cw := clampInt(int(math.Round(float64(base.Width)*scale)), 1, sw)
	ch := clampInt(int(math.Round(float64(base.Height)*scale)), 1, sh)

	bestX, bestY := (sw-cw)/2, (sh-ch)/2
	best := windowSum(sum, bestX, bestY, cw, ch)
	moved := false
	for y := 0; y <= sh-ch; y++ {
		for x := 0; x <= sw-cw; x++ {
			if s := windowSum(sum, x, y, cw, ch); s > best {
				best, bestX, bestY, moved = s, x, y, true
			}
		}
	}
	if !moved {
		return base
	}

	out := base
	out.X = clampInt(int(math.Round(float64(bestX)/scale)), 0, w-base.Width)
	out.Y = clampInt(int(math.Round(float64(bestY)/scale)), 0, h-base.Height)
	return out
}

// InitialCrop returns the starting region for img, centred or moved by SmartCrop
func InitialCrop(img image.Image, aspect AspectRatio, smart bool) Rect {
	if smart {
		return SmartCrop(img, aspect.Ratio())
	}
	b := img.Bounds()
	return CenterAspectCrop(b.Dx(), b.Dy(), aspect.Ratio())
}

// edgeIntegral returns the summed-area table of the gradient magnitude of a grey image
func edgeIntegral(img *image.NRGBA) [][]float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	lum := func(x, y int) float64 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return float64(img.Pix[y*img.Stride+x*4])
	}

	sum := make([][]float64, h+1)
	for i := range sum {
		sum[i] = make([]float64, w+1)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := lum(x+1, y) - lum(x-1, y)
			gy := lum(x, y+1) - lum(x, y-1)
			e := math.Sqrt(gx*gx + gy*gy)
			sum[y+1][x+1] = e + sum[y][x+1] + sum[y+1][x] - sum[y][x]
		}
	}
	return sum
}

func windowSum(sum [][]float64, x, y, w, h int) float64 {
	return sum[y+h][x+w] - sum[y][x+w] - sum[y+h][x] + sum[y][x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
