package poster

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/menta2k/labelkit/pkg/types"
)

// Canvas geometry shared by the editor and the rasterizer
const (
	CanvasWidth  = 640
	CanvasHeight = 854

	HeaderHeight = 110
	FooterHeight = 60
	BandRadius   = 15

	DefaultBandOffset = 15
	MaxBandOffset     = 100

	// EdgeMargin keeps a dropped element at least this far inside the canvas
	EdgeMargin = 50
)

// Editor input ranges
const (
	MinFontSize = 8
	MaxFontSize = 120
	MinWidth    = 10
	MaxWidth    = 600
	MinHeight   = 10
	MaxHeight   = 800

	// MinResize is the floor applied by the resize gesture
	MinResize = 20
)

// Element positions must stay within one canvas size of the canvas on every side
const (
	MinX = -CanvasWidth
	MaxX = 2 * CanvasWidth
	MinY = -CanvasHeight
	MaxY = 2 * CanvasHeight
)

// ElementType identifies what an element draws
type ElementType string

const (
	TypeTitle      ElementType = "title"
	TypeSubtitle   ElementType = "subtitle"
	TypeText       ElementType = "text"
	TypeLogo       ElementType = "logo"
	TypeColorBlock ElementType = "color-block"
	TypeImage      ElementType = "image"
	TypeQRCode     ElementType = "qrcode"
)

var allTypes = []ElementType{
	TypeTitle, TypeSubtitle, TypeText, TypeLogo, TypeColorBlock, TypeImage, TypeQRCode,
}

// Types returns every supported element type
func Types() []ElementType {
	out := make([]ElementType, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a known element type
func (t ElementType) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsText reports whether the element draws its content as text
func (t ElementType) IsText() bool {
	return t == TypeTitle || t == TypeSubtitle || t == TypeText
}

// Resizable reports whether the resize handle applies to the type
func (t ElementType) Resizable() bool {
	return t == TypeColorBlock || t == TypeImage || t == TypeQRCode
}

// DefaultFontSize returns the font size used when an element has none set
func (t ElementType) DefaultFontSize() int {
	switch t {
	case TypeTitle:
		return 48
	case TypeSubtitle:
		return 24
	default:
		return 18
	}
}

// DefaultSize returns the box used when an element has no width or height set
func (t ElementType) DefaultSize() types.Size {
	switch t {
	case TypeLogo:
		return types.Size{Width: 60, Height: 60}
	case TypeImage:
		return types.Size{Width: 150, Height: 150}
	case TypeQRCode:
		return types.Size{Width: 120, Height: 120}
	default:
		return types.Size{Width: 100, Height: 100}
	}
}

const (
	DefaultTextColor  = "#FFFFFF"
	DefaultBlockColor = "#FF5722"
)

// Element is a positioned visual primitive on the poster canvas.
// Zero style fields mean "use the type default".
type Element struct {
	ID              string         `json:"id"`
	Type            ElementType    `json:"type"`
	Content         string         `json:"content"`
	Position        types.Position `json:"position"`
	FontSize        int            `json:"fontSize,omitempty"`
	Color           string         `json:"color,omitempty"`
	BackgroundColor string         `json:"backgroundColor,omitempty"`
	Width           int            `json:"width,omitempty"`
	Height          int            `json:"height,omitempty"`
}

// EffectiveFontSize returns FontSize or the type default
func (e Element) EffectiveFontSize() int {
	if e.FontSize > 0 {
		return e.FontSize
	}
	return e.Type.DefaultFontSize()
}

// EffectiveColor returns Color or white
func (e Element) EffectiveColor() string {
	if e.Color != "" {
		return e.Color
	}
	return DefaultTextColor
}

// EffectiveBackground returns BackgroundColor or the color-block default
func (e Element) EffectiveBackground() string {
	if e.BackgroundColor != "" {
		return e.BackgroundColor
	}
	return DefaultBlockColor
}

// EffectiveSize returns the element box, filling unset sides from the type default
func (e Element) EffectiveSize() types.Size {
	size := e.Type.DefaultSize()
	if e.Width > 0 {
		size.Width = e.Width
	}
	if e.Height > 0 {
		size.Height = e.Height
	}
	return size
}

// Validate checks the type and the style fields that are set
func (e Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidElement)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	if e.FontSize != 0 && (e.FontSize < MinFontSize || e.FontSize > MaxFontSize) {
		return fmt.Errorf("%w: fontSize %d", ErrOutOfRange, e.FontSize)
	}
	if e.Color != "" {
		if _, err := ParseHexColor(e.Color); err != nil {
			return err
		}
	}
	if e.BackgroundColor != "" {
		if _, err := ParseHexColor(e.BackgroundColor); err != nil {
			return err
		}
	}
	if e.Width < 0 || e.Height < 0 {
		return fmt.Errorf("%w: negative size", ErrOutOfRange)
	}
	if e.Width > MaxWidth || e.Height > MaxHeight {
		return fmt.Errorf("%w: size %dx%d", ErrOutOfRange, e.Width, e.Height)
	}
	return ValidatePosition(e.Position)
}

// ValidatePosition rejects positions far outside the canvas
func ValidatePosition(p types.Position) error {
	if p.X < MinX || p.X > MaxX || p.Y < MinY || p.Y > MaxY {
		return fmt.Errorf("%w: position %d,%d", ErrOutOfRange, p.X, p.Y)
	}
	return nil
}

// NewElementID returns "<prefix>-<uuid>"
func NewElementID(prefix string) string {
	if prefix == "" {
		prefix = "element"
	}
	return prefix + "-" + uuid.NewString()
}
