package poster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/labelkit/pkg/types"
)

// Seeded element ids
const (
	IDTitle       = "title"
	IDSubtitle    = "subtitle"
	IDSecondTitle = "secondTitle"
	IDFooterText  = "footerText"
	IDLogo        = "logo"
)

// Text holds the form values the seeded elements mirror
type Text struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	SecondTitle string `json:"secondTitle"`
	FooterText  string `json:"footerText"`
	LogoURL     string `json:"logoUrl"`
}

// Layout is a snapshot of everything the rasterizer needs from the editor
type Layout struct {
	Elements     []Element `json:"elements"`
	HeaderTop    int       `json:"headerTop"`
	FooterBottom int       `json:"footerBottom"`
}

// Editor owns the element list of one poster. It is not safe for concurrent use.
type Editor struct {
	elements     []Element
	selected     string
	preview      bool
	headerTop    int
	footerBottom int
}

// NewEditor creates an empty editor with the default band offsets
func NewEditor() *Editor {
	return &Editor{
		headerTop:    DefaultBandOffset,
		footerBottom: DefaultBandOffset,
	}
}

// Elements returns a copy of the element list in draw order
func (ed *Editor) Elements() []Element {
	out := make([]Element, len(ed.elements))
	copy(out, ed.elements)
	return out
}

// Len returns the number of elements
func (ed *Editor) Len() int {
	return len(ed.elements)
}

// Get returns the element with the given id
func (ed *Editor) Get(id string) (Element, bool) {
	i := ed.index(id)
	if i < 0 {
		return Element{}, false
	}
	return ed.elements[i], true
}

func (ed *Editor) index(id string) int {
	for i := range ed.elements {
		if ed.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends an element, rejecting duplicate ids and invalid fields
func (ed *Editor) Add(el Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	if ed.index(el.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
	}
	ed.elements = append(ed.elements, el)
	return nil
}

// AddNew creates an element of the given type at the default drop point and selects it.
// Colour blocks need no content; every other type does.
func (ed *Editor) AddNew(typ ElementType, content string) (Element, error) {
	if !typ.Valid() {
		return Element{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if typ != TypeColorBlock && strings.TrimSpace(content) == "" {
		return Element{}, ErrEmptyContent
	}

	el := Element{
		ID:       NewElementID(string(typ)),
		Type:     typ,
		Content:  content,
		Position: types.Position{X: 100, Y: 200},
	}
	switch typ {
	case TypeColorBlock:
		el.BackgroundColor = DefaultBlockColor
		fallthrough
	case TypeImage, TypeQRCode:
		size := typ.DefaultSize()
		el.Width, el.Height = size.Width, size.Height
	}

	if err := ed.Add(el); err != nil {
		return Element{}, err
	}
	ed.selected = el.ID
	return el, nil
}

// Seed fills the default advanced-mode layout when the editor is empty.
// It returns false when elements already exist.
func (ed *Editor) Seed(t Text) bool {
	if len(ed.elements) > 0 {
		return false
	}
	ed.elements = []Element{
		{ID: IDTitle, Type: TypeTitle, Content: t.Title, Position: types.Position{X: 50, Y: 45}},
		{ID: IDSubtitle, Type: TypeSubtitle, Content: t.Subtitle, Position: types.Position{X: 50, Y: 95}},
		{ID: IDSecondTitle, Type: TypeSubtitle, Content: t.SecondTitle, Position: types.Position{X: 320, Y: 55}},
		{ID: IDFooterText, Type: TypeText, Content: t.FooterText, Position: types.Position{X: 240, Y: 805}},
	}
	if t.LogoURL != "" {
		ed.elements = append(ed.elements, Element{
			ID: IDLogo, Type: TypeLogo, Content: t.LogoURL, Position: types.Position{X: 290, Y: 25},
		})
	}
	return true
}

// SyncText copies the form values into the seeded elements that still exist.
// An empty logo URL leaves the logo element untouched.
func (ed *Editor) SyncText(t Text) {
	for i := range ed.elements {
		el := &ed.elements[i]
		switch el.ID {
		case IDTitle:
			el.Content = t.Title
		case IDSubtitle:
			el.Content = t.Subtitle
		case IDSecondTitle:
			el.Content = t.SecondTitle
		case IDFooterText:
			el.Content = t.FooterText
		case IDLogo:
			if t.LogoURL != "" {
				el.Content = t.LogoURL
			}
		}
	}
}

// Move sets an element position as given. Clamping to the editor bounds is the
// caller's concern; only positions far off the canvas are rejected.
func (ed *Editor) Move(id string, pos types.Position) error {
	i := ed.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := ValidatePosition(pos); err != nil {
		return err
	}
	ed.elements[i].Position = pos
	return nil
}

// Resize sets an element box, applying the resize floor and the width and height limits
func (ed *Editor) Resize(id string, size types.Size) error {
	i := ed.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !ed.elements[i].Type.Resizable() {
		return fmt.Errorf("%w: %s", ErrNotResizable, ed.elements[i].Type)
	}
	ed.elements[i].Width = min(max(MinResize, size.Width), MaxWidth)
	ed.elements[i].Height = min(max(MinResize, size.Height), MaxHeight)
	return nil
}

// SetProperty changes one style property from its form value.
// Properties: fontSize, color, backgroundColor, width, height.
func (ed *Editor) SetProperty(id, property, value string) error {
	i := ed.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	el := &ed.elements[i]

	switch property {
	case "fontSize":
		n, err := parseRange(value, MinFontSize, MaxFontSize)
		if err != nil {
			return err
		}
		el.FontSize = n
	case "width":
		n, err := parseRange(value, MinWidth, MaxWidth)
		if err != nil {
			return err
		}
		el.Width = n
	case "height":
		n, err := parseRange(value, MinHeight, MaxHeight)
		if err != nil {
			return err
		}
		el.Height = n
	case "color":
		if _, err := ParseHexColor(value); err != nil {
			return err
		}
		el.Color = value
	case "backgroundColor":
		if _, err := ParseHexColor(value); err != nil {
			return err
		}
		el.BackgroundColor = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProperty, property)
	}
	return nil
}

func parseRange(value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProperty, value)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, n, lo, hi)
	}
	return n, nil
}

// UpdateContent replaces an element's content; blank content is ignored
func (ed *Editor) UpdateContent(id, content string) error {
	i := ed.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}
	ed.elements[i].Content = content
	return nil
}

// Delete removes an element and clears the selection
func (ed *Editor) Delete(id string) error {
	i := ed.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ed.elements = append(ed.elements[:i], ed.elements[i+1:]...)
	ed.selected = ""
	return nil
}

// Reset drops every element and restores the default band offsets
func (ed *Editor) Reset() {
	ed.elements = nil
	ed.selected = ""
	ed.preview = false
	ed.headerTop = DefaultBandOffset
	ed.footerBottom = DefaultBandOffset
}

// Select makes id the single selected element; an empty id clears the selection
func (ed *Editor) Select(id string) error {
	if id == "" {
		ed.selected = ""
		return nil
	}
	if ed.preview {
		return ErrPreviewMode
	}
	if ed.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ed.selected = id
	return nil
}

// SelectedID returns the selected element id or ""
func (ed *Editor) SelectedID() string {
	return ed.selected
}

// Selected returns the selected element
func (ed *Editor) Selected() (Element, bool) {
	if ed.selected == "" {
		return Element{}, false
	}
	return ed.Get(ed.selected)
}

// SetPreview toggles preview mode; entering it clears the selection
func (ed *Editor) SetPreview(on bool) {
	ed.preview = on
	if on {
		ed.selected = ""
	}
}

// Preview reports whether the editor is in preview mode
func (ed *Editor) Preview() bool {
	return ed.preview
}

// HeaderTop returns the header band offset from the top edge
func (ed *Editor) HeaderTop() int {
	return ed.headerTop
}

// FooterBottom returns the footer band offset from the bottom edge
func (ed *Editor) FooterBottom() int {
	return ed.footerBottom
}

// SetHeaderTop clamps v to [0,100] and stores it
func (ed *Editor) SetHeaderTop(v int) int {
	ed.headerTop = ClampBand(v)
	return ed.headerTop
}

// SetFooterBottom clamps v to [0,100] and stores it
func (ed *Editor) SetFooterBottom(v int) int {
	ed.footerBottom = ClampBand(v)
	return ed.footerBottom
}

// Layout returns a snapshot for rendering
func (ed *Editor) Layout() Layout {
	return Layout{
		Elements:     ed.Elements(),
		HeaderTop:    ed.headerTop,
		FooterBottom: ed.footerBottom,
	}
}

// LoadLayout replaces the editor state with a snapshot, validating every element
func (ed *Editor) LoadLayout(l Layout) error {
	next := NewEditor()
	for _, el := range l.Elements {
		if err := next.Add(el); err != nil {
			return err
		}
	}
	next.SetHeaderTop(l.HeaderTop)
	next.SetFooterBottom(l.FooterBottom)
	*ed = *next
	return nil
}

// ClampBand limits a band offset to [0,100]
func ClampBand(v int) int {
	return min(max(v, 0), MaxBandOffset)
}

// ClampPosition keeps a dropped element inside the canvas, EdgeMargin from the right and bottom
func ClampPosition(p types.Position) types.Position {
	return types.Position{
		X: min(max(p.X, 0), CanvasWidth-EdgeMargin),
		Y: min(max(p.Y, 0), CanvasHeight-EdgeMargin),
	}
}
