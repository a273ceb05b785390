package poster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/labelkit/pkg/types"
)

func seededEditor(t *testing.T) *Editor {
	t.Helper()
	ed := NewEditor()
	require.True(t, ed.Seed(Text{
		Title:       "SALE",
		Subtitle:    "today only",
		SecondTitle: "50%",
		FooterText:  "shop.example",
		LogoURL:     "data:image/png;base64,AAAA",
	}))
	return ed
}

func TestSeedDefaults(t *testing.T) {
	ed := seededEditor(t)
	require.Equal(t, 5, ed.Len())

	want := map[string]types.Position{
		IDTitle:       {X: 50, Y: 45},
		IDSubtitle:    {X: 50, Y: 95},
		IDSecondTitle: {X: 320, Y: 55},
		IDFooterText:  {X: 240, Y: 805},
		IDLogo:        {X: 290, Y: 25},
	}
	for id, pos := range want {
		el, ok := ed.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, pos, el.Position, id)
	}

	second, _ := ed.Get(IDSecondTitle)
	assert.Equal(t, TypeSubtitle, second.Type)

	assert.False(t, ed.Seed(Text{Title: "again"}), "seeding a non-empty editor is a no-op")
}

func TestSeedWithoutLogo(t *testing.T) {
	ed := NewEditor()
	ed.Seed(Text{Title: "x"})
	_, ok := ed.Get(IDLogo)
	assert.False(t, ok)
	assert.Equal(t, 4, ed.Len())
}

func TestSyncText(t *testing.T) {
	ed := seededEditor(t)
	ed.SyncText(Text{Title: "NEW", Subtitle: "s", SecondTitle: "2", FooterText: "f"})

	title, _ := ed.Get(IDTitle)
	assert.Equal(t, "NEW", title.Content)
	footer, _ := ed.Get(IDFooterText)
	assert.Equal(t, "f", footer.Content)
	logo, _ := ed.Get(IDLogo)
	assert.Equal(t, "data:image/png;base64,AAAA", logo.Content, "empty logo keeps the old one")
}

func TestAddRejectsDuplicatesAndUnknownTypes(t *testing.T) {
	ed := seededEditor(t)

	err := ed.Add(Element{ID: IDTitle, Type: TypeText, Content: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	err = ed.Add(Element{ID: "x", Type: "sticker"})
	assert.ErrorIs(t, err, ErrUnknownType)

	err = ed.Add(Element{ID: "y", Type: TypeText, Color: "red"})
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestAddRejectsOutOfRangeElements(t *testing.T) {
	ed := NewEditor()
	cases := map[string]Element{
		"huge qrcode":    {ID: "q", Type: TypeQRCode, Content: "x", Width: 20000, Height: 20000},
		"tall image":     {ID: "i", Type: TypeImage, Content: "x", Height: MaxHeight + 1},
		"font size":      {ID: "t", Type: TypeText, Content: "x", FontSize: 5000},
		"negative block": {ID: "b", Type: TypeColorBlock, Width: -40},
		"far right":      {ID: "r", Type: TypeText, Content: "x", Position: types.Position{X: MaxX + 1}},
		"far above":      {ID: "u", Type: TypeText, Content: "x", Position: types.Position{Y: MinY - 1}},
	}
	for name, el := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ed.Add(el), ErrOutOfRange)
		})
	}
	assert.Zero(t, ed.Len())

	require.NoError(t, ed.Add(Element{ID: "ok", Type: TypeImage, Content: "x", Width: MaxWidth, Height: MaxHeight, Position: types.Position{X: -20, Y: 900}}))
}

func TestMoveAndResizeLimits(t *testing.T) {
	ed := NewEditor()
	block, err := ed.AddNew(TypeColorBlock, "")
	require.NoError(t, err)

	assert.ErrorIs(t, ed.Move(block.ID, types.Position{X: 100000, Y: 0}), ErrOutOfRange)
	require.NoError(t, ed.Move(block.ID, types.Position{X: -5, Y: 900}))

	require.NoError(t, ed.Resize(block.ID, types.Size{Width: 5000, Height: 5000}))
	el, _ := ed.Get(block.ID)
	assert.Equal(t, MaxWidth, el.Width)
	assert.Equal(t, MaxHeight, el.Height)
	require.NoError(t, el.Validate())
}

func TestAddNew(t *testing.T) {
	ed := NewEditor()

	block, err := ed.AddNew(TypeColorBlock, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block.ID, "color-block-"))
	assert.Equal(t, DefaultBlockColor, block.BackgroundColor)
	assert.Equal(t, 100, block.Width)
	assert.Equal(t, types.Position{X: 100, Y: 200}, block.Position)
	assert.Equal(t, block.ID, ed.SelectedID())

	img, err := ed.AddNew(TypeImage, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, 150, img.Width)
	assert.Equal(t, 150, img.Height)
	assert.NotEqual(t, block.ID, img.ID)

	_, err = ed.AddNew(TypeText, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestSetProperty(t *testing.T) {
	ed := seededEditor(t)

	require.NoError(t, ed.SetProperty(IDTitle, "fontSize", "72"))
	el, _ := ed.Get(IDTitle)
	assert.Equal(t, 72, el.FontSize)

	tests := []struct {
		property, value string
		err             error
	}{
		{"fontSize", "7", ErrOutOfRange},
		{"fontSize", "121", ErrOutOfRange},
		{"fontSize", "big", ErrInvalidProperty},
		{"width", "601", ErrOutOfRange},
		{"height", "9", ErrOutOfRange},
		{"color", "#12", ErrInvalidColor},
		{"opacity", "1", ErrInvalidProperty},
	}
	for _, tt := range tests {
		err := ed.SetProperty(IDTitle, tt.property, tt.value)
		assert.ErrorIs(t, err, tt.err, "%s=%s", tt.property, tt.value)
	}

	require.NoError(t, ed.SetProperty(IDTitle, "color", "#000"))
	require.NoError(t, ed.SetProperty(IDTitle, "height", "800"))
	el, _ = ed.Get(IDTitle)
	assert.Equal(t, "#000", el.Color)
	assert.Equal(t, 800, el.Height)

	assert.ErrorIs(t, ed.SetProperty("missing", "width", "20"), ErrNotFound)
}

func TestUpdateContentIgnoresBlank(t *testing.T) {
	ed := seededEditor(t)
	require.NoError(t, ed.UpdateContent(IDTitle, "  "))
	el, _ := ed.Get(IDTitle)
	assert.Equal(t, "SALE", el.Content)

	require.NoError(t, ed.UpdateContent(IDTitle, "NEW"))
	el, _ = ed.Get(IDTitle)
	assert.Equal(t, "NEW", el.Content)
}

func TestDeleteClearsSelection(t *testing.T) {
	ed := seededEditor(t)
	require.NoError(t, ed.Select(IDSubtitle))
	require.NoError(t, ed.Delete(IDTitle))
	assert.Empty(t, ed.SelectedID())
	assert.Equal(t, 4, ed.Len())
	assert.ErrorIs(t, ed.Delete(IDTitle), ErrNotFound)
}

func TestSingleSelection(t *testing.T) {
	ed := seededEditor(t)
	require.NoError(t, ed.Select(IDTitle))
	require.NoError(t, ed.Select(IDLogo))
	assert.Equal(t, IDLogo, ed.SelectedID())

	ed.SetPreview(true)
	assert.Empty(t, ed.SelectedID())
	assert.ErrorIs(t, ed.Select(IDTitle), ErrPreviewMode)
}

func TestBandClamp(t *testing.T) {
	ed := NewEditor()
	assert.Equal(t, DefaultBandOffset, ed.HeaderTop())
	assert.Equal(t, 0, ed.SetHeaderTop(-5))
	assert.Equal(t, 100, ed.SetHeaderTop(250))
	assert.Equal(t, 42, ed.SetFooterBottom(42))
	assert.Equal(t, 100, ed.SetFooterBottom(101))
}

func TestClampPosition(t *testing.T) {
	assert.Equal(t, types.Position{X: 0, Y: 0}, ClampPosition(types.Position{X: -10, Y: -1}))
	assert.Equal(t, types.Position{X: 590, Y: 804}, ClampPosition(types.Position{X: 1000, Y: 1000}))
	assert.Equal(t, types.Position{X: 12, Y: 34}, ClampPosition(types.Position{X: 12, Y: 34}))
}

func TestLayoutRoundTrip(t *testing.T) {
	ed := seededEditor(t)
	ed.SetHeaderTop(30)

	other := NewEditor()
	require.NoError(t, other.LoadLayout(ed.Layout()))
	assert.Equal(t, ed.Elements(), other.Elements())
	assert.Equal(t, 30, other.HeaderTop())

	bad := Layout{Elements: []Element{{ID: "a", Type: TypeText}, {ID: "a", Type: TypeText}}}
	assert.ErrorIs(t, other.LoadLayout(bad), ErrDuplicateID)
	assert.Equal(t, 5, other.Len(), "failed load leaves state intact")
}

func TestEffectiveDefaults(t *testing.T) {
	assert.Equal(t, 48, Element{Type: TypeTitle}.EffectiveFontSize())
	assert.Equal(t, 24, Element{Type: TypeSubtitle}.EffectiveFontSize())
	assert.Equal(t, 18, Element{Type: TypeText}.EffectiveFontSize())
	assert.Equal(t, types.Size{Width: 60, Height: 60}, Element{Type: TypeLogo}.EffectiveSize())
	assert.Equal(t, types.Size{Width: 150, Height: 80}, Element{Type: TypeImage, Height: 80}.EffectiveSize())
	assert.Equal(t, DefaultTextColor, Element{}.EffectiveColor())
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF5722")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), c.R)
	assert.Equal(t, uint8(0x57), c.G)
	assert.Equal(t, uint8(0x22), c.B)
	assert.Equal(t, uint8(0xFF), c.A)

	c, err = ParseHexColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), c.G)

	c, err = ParseHexColor("#00000080")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), c.A)

	_, err = ParseHexColor("#GGGGGG")
	assert.Error(t, err)
}
