// Package crop implements the image crop editor and the batch export of edited images.
package crop

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// MinSize is the smallest crop accepted on either side, in natural pixels
const MinSize = 20

var (
	ErrCropTooSmall = errors.New("crop region is smaller than 20x20")
	ErrBadRotation  = errors.New("rotation must be a multiple of 90 degrees")
	ErrBadAspect    = errors.New("invalid aspect ratio")
)

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Common aspect ratios
var (
	Free       = AspectRatio{0, 0, "free"}
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Free, Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// Ratio returns width/height, or 0 for a free crop
func (a AspectRatio) Ratio() float64 {
	if a.Width <= 0 || a.Height <= 0 {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

// ParseAspect accepts a preset name or "w:h"
func ParseAspect(s string) (AspectRatio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Free, nil
	}
	for _, a := range CommonAspectRatios() {
		if a.Name == s {
			return a, nil
		}
	}
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrBadAspect, s)
	}
	wi, err1 := strconv.Atoi(w)
	hi, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || wi <= 0 || hi <= 0 {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrBadAspect, s)
	}
	return AspectRatio{wi, hi, s}, nil
}

// Rect is a crop region in natural image pixels
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// CenterAspectCrop returns the initial crop for a w x h image: 90% of the width, centred.
// A positive aspect fixes width/height and shrinks to fit the height; 0 leaves the ratio free
// and takes 90% of the height as well.
func CenterAspectCrop(w, h int, aspect float64) Rect {
	cw := float64(w) * 0.9
	ch := float64(h) * 0.9
	if aspect > 0 {
		ch = cw / aspect
		if ch > float64(h) {
			ch = float64(h)
			cw = ch * aspect
		}
	}
	rw, rh := int(math.Round(cw)), int(math.Round(ch))
	return Rect{
		X:      (w - rw) / 2,
		Y:      (h - rh) / 2,
		Width:  rw,
		Height: rh,
	}
}

// RotateLeft turns the rotation 90 degrees counter-clockwise
func RotateLeft(rotation int) int {
	return (rotation - 90) % 360
}

// RotateRight turns the rotation 90 degrees clockwise
func RotateRight(rotation int) int {
	return (rotation + 90) % 360
}

// normalize maps any multiple of 90 into 0, 90, 180 or 270
func normalize(rotation int) (int, error) {
	if rotation%90 != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadRotation, rotation)
	}
	return ((rotation % 360) + 360) % 360, nil
}

// Params is one edit: an optional crop followed by a clockwise rotation
type Params struct {
	Crop     *Rect `json:"crop,omitempty"`
	Rotation int   `json:"rotation"`
}

// IsZero reports whether the params leave the image untouched
func (p Params) IsZero() bool {
	r, err := normalize(p.Rotation)
	return p.Crop == nil && err == nil && r == 0
}

// Apply crops img to the region, clipped to the image, then rotates clockwise
func Apply(img image.Image, p Params) (image.Image, error) {
	rotation, err := normalize(p.Rotation)
	if err != nil {
		return nil, err
	}

	out := img
	if p.Crop != nil {
		b := img.Bounds()
		region := p.Crop.image().Add(b.Min).Intersect(b)
		if region.Dx() < MinSize || region.Dy() < MinSize {
			return nil, fmt.Errorf("%w: %dx%d", ErrCropTooSmall, region.Dx(), region.Dy())
		}
		out = imaging.Crop(img, region)
	}

	// imaging rotates counter-clockwise
	switch rotation {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}
	return out, nil
}
