package raster

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Fonts holds one parsed bold font. Faces are not safe for concurrent use,
// so each render opens its own FaceSet.
type Fonts struct {
	font *opentype.Font
}

// LoadFonts parses the font at path, or the bundled Go Bold face when path is empty
func LoadFonts(path string) (*Fonts, error) {
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = b
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Fonts{font: f}, nil
}

// NewFaceSet returns an empty per-render face cache
func (f *Fonts) NewFaceSet() *FaceSet {
	return &FaceSet{font: f.font, faces: make(map[float64]font.Face)}
}

// FaceSet caches faces by pixel size for a single goroutine
type FaceSet struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// Face returns a face whose em size is size pixels
func (s *FaceSet) Face(size float64) (font.Face, error) {
	if face, ok := s.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	s.faces[size] = face
	return face, nil
}

// Close releases every face
func (s *FaceSet) Close() error {
	for size, face := range s.faces {
		_ = face.Close()
		delete(s.faces, size)
	}
	return nil
}
