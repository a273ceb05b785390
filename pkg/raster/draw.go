package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Direction is a CSS-style linear gradient direction
type Direction string

const (
	ToBottom      Direction = "to bottom"
	ToRight       Direction = "to right"
	ToBottomRight Direction = "to bottom right"
	ToBottomLeft  Direction = "to bottom left"
)

// Directions lists the supported gradient directions, default first
func Directions() []Direction {
	return []Direction{ToBottom, ToRight, ToBottomRight, ToBottomLeft}
}

// gradientLine returns the start and end points of the gradient axis
func gradientLine(dir Direction, w, h int) (x0, y0, x1, y1 float64) {
	fw, fh := float64(w), float64(h)
	switch dir {
	case ToRight:
		return 0, 0, fw, 0
	case ToBottomRight:
		return 0, 0, fw, fh
	case ToBottomLeft:
		return fw, 0, 0, fh
	default:
		return 0, 0, 0, fh
	}
}

func fillGradient(dst *image.RGBA, dir Direction, from, to color.RGBA) {
	b := dst.Bounds()
	x0, y0, x1, y1 := gradientLine(dir, b.Dx(), b.Dy())
	dx, dy := x1-x0, y1-y0
	den := dx*dx + dy*dy

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := float64(x-b.Min.X) + 0.5
			py := float64(y-b.Min.Y) + 0.5
			t := ((px-x0)*dx + (py-y0)*dy) / den
			t = math.Max(0, math.Min(1, t))
			dst.SetRGBA(x, y, lerp(from, to, t))
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p) + (float64(q)-float64(p))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// roundRectMask is the coverage mask of a rectangle with circular corners
type roundRectMask struct {
	r      image.Rectangle
	radius int
}

func (m roundRectMask) ColorModel() color.Model { return color.AlphaModel }
func (m roundRectMask) Bounds() image.Rectangle { return m.r }

func (m roundRectMask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(m.r) {
		return color.Alpha{}
	}
	rad := m.radius
	cx, cy := -1, -1
	switch {
	case x < m.r.Min.X+rad:
		cx = m.r.Min.X + rad
	case x >= m.r.Max.X-rad:
		cx = m.r.Max.X - rad - 1
	}
	switch {
	case y < m.r.Min.Y+rad:
		cy = m.r.Min.Y + rad
	case y >= m.r.Max.Y-rad:
		cy = m.r.Max.Y - rad - 1
	}
	if cx < 0 || cy < 0 {
		return color.Alpha{A: 0xff}
	}
	ddx, ddy := float64(x-cx), float64(y-cy)
	d := math.Sqrt(ddx*ddx+ddy*ddy) - float64(rad)
	switch {
	case d <= -0.5:
		return color.Alpha{A: 0xff}
	case d >= 0.5:
		return color.Alpha{}
	}
	return color.Alpha{A: uint8(math.Round((0.5 - d) * 255))}
}

func fillRoundRect(dst draw.Image, r image.Rectangle, radius int, c color.Color) {
	radius = min(radius, r.Dx()/2, r.Dy()/2)
	mask := roundRectMask{r: r, radius: radius}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}

// drawScaled stretches src over r, the way drawImage(img, x, y, w, h) does
func drawScaled(dst draw.Image, r image.Rectangle, src image.Image) {
	if r.Empty() {
		return
	}
	xdraw.CatmullRom.Scale(dst, r, src, src.Bounds(), xdraw.Over, nil)
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

// drawText draws s with its baseline at y. With alignCenter, x is the horizontal centre.
func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color, a align) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	dot := fixed.P(x, y)
	if a == alignCenter {
		dot.X -= d.MeasureString(s) / 2
	}
	d.Dot = dot
	d.DrawString(s)
}
