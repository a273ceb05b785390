package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/poster"
	"github.com/menta2k/labelkit/pkg/types"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// recordingLoader serves solid images and records the load order
type recordingLoader struct {
	mu     sync.Mutex
	order  []string
	active int
	peak   int
	images map[string]image.Image
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{images: map[string]image.Image{}}
}

func (l *recordingLoader) Load(_ context.Context, ref string) (image.Image, error) {
	l.mu.Lock()
	l.active++
	l.peak = max(l.peak, l.active)
	l.order = append(l.order, ref)
	img, ok := l.images[ref]
	l.active--
	l.mu.Unlock()
	if !ok {
		return nil, errors.New("missing " + ref)
	}
	return img, nil
}

func newTestRenderer(t *testing.T, loader ImageLoader) *Renderer {
	t.Helper()
	r, err := NewRenderer(Config{JPEGQuality: 95}, loader, nil)
	require.NoError(t, err)
	return r
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func near(t *testing.T, want, got color.RGBA, msg string) {
	t.Helper()
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	assert.LessOrEqual(t, d(want.R, got.R)+d(want.G, got.G)+d(want.B, got.B), 12, "%s: want %v got %v", msg, want, got)
}

var (
	red    = color.RGBA{R: 255, A: 255}
	green  = color.RGBA{G: 255, A: 255}
	blue   = color.RGBA{B: 255, A: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black  = color.RGBA{A: 255}
	orange = color.RGBA{R: 0xFF, G: 0x57, B: 0x22, A: 255}
)

func TestCellGeometry(t *testing.T) {
	assert.InDelta(t, 192.0, CellWidth, 1e-9)
	assert.InDelta(t, 145.0, GridTop(15), 1e-9)
	assert.Equal(t, 779, FooterTop(15))
	assert.InDelta(t, 192.0, CellHeight(15, 15), 1e-9)

	// pushing the bands inward shrinks the cells
	h := CellHeight(100, 100)
	available := float64(854-60-100) - float64(110+100+20) - 30
	assert.InDelta(t, available/3.125, h, 1e-9)
	assert.Less(t, h, 192.0)

	cells := GridCells(15, 15, 12)
	require.Len(t, cells, 9)
	assert.Equal(t, image.Rect(20, 145, 212, 337), cells[0])
	assert.Equal(t, image.Rect(224, 145, 416, 337), cells[1])
	assert.Equal(t, image.Rect(428, 553, 620, 745), cells[8])
}

func TestRenderRequiresImages(t *testing.T) {
	r := newTestRenderer(t, newRecordingLoader())
	_, err := r.Render(context.Background(), DefaultOptions())
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestRenderDrawOrderAndGrid(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["a"] = solidImage(50, 50, red)
	loader.images["b"] = solidImage(80, 30, green)
	r := newTestRenderer(t, loader)

	opts := DefaultOptions()
	opts.Text = poster.Text{}
	opts.Images = []string{"a", "b"}

	img, err := r.Render(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 854), img.Bounds())

	near(t, white, rgbaAt(img, 5, 5), "background above the header")
	near(t, black, rgbaAt(img, 320, 60), "header band")
	near(t, orange, rgbaAt(img, 320, 800), "footer band")
	near(t, red, rgbaAt(img, 100, 240), "first cell")
	near(t, green, rgbaAt(img, 320, 240), "second cell")
	near(t, white, rgbaAt(img, 520, 240), "third cell is empty")
	near(t, white, rgbaAt(img, 218, 240), "gap between cells")

	assert.Equal(t, []string{"a", "b"}, loader.order)
	assert.Equal(t, 1, loader.peak, "images load one at a time")
}

func TestRenderRoundedHeaderCorner(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["a"] = solidImage(4, 4, red)
	r := newTestRenderer(t, loader)

	opts := DefaultOptions()
	opts.Text = poster.Text{}
	opts.Images = []string{"a"}
	img, err := r.Render(context.Background(), opts)
	require.NoError(t, err)

	near(t, white, rgbaAt(img, 0, 15), "corner outside the radius")
	near(t, black, rgbaAt(img, 15, 15), "top edge inside the radius")
}

func TestRenderGradient(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["a"] = solidImage(4, 4, red)
	r := newTestRenderer(t, loader)

	opts := DefaultOptions()
	opts.Text = poster.Text{}
	opts.Images = []string{"a"}
	opts.HeaderColor = "#00000000"
	opts.FooterColor = "#00000000"
	opts.Background = Background{Gradient: true, From: "#FF0000", To: "#0000FF", Direction: ToRight}

	img, err := r.Render(context.Background(), opts)
	require.NoError(t, err)
	near(t, red, rgbaAt(img, 0, 5), "left edge")
	near(t, blue, rgbaAt(img, 639, 5), "right edge")

	opts.Background.Direction = ToBottomLeft
	img, err = r.Render(context.Background(), opts)
	require.NoError(t, err)
	near(t, red, rgbaAt(img, 639, 0), "top right starts the gradient")
	near(t, blue, rgbaAt(img, 0, 853), "bottom left ends it")
}

func TestRenderAdvancedElements(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["grid"] = solidImage(4, 4, red)
	loader.images["pic"] = solidImage(10, 10, green)
	r := newTestRenderer(t, loader)

	opts := DefaultOptions()
	opts.Images = []string{"grid"}
	opts.AdvancedMode = true
	opts.Layout.Elements = []poster.Element{
		{ID: "block", Type: poster.TypeColorBlock, Position: types.Position{X: 10, Y: 400}, BackgroundColor: "#0000FF", Width: 30, Height: 40},
		{ID: "pic", Type: poster.TypeImage, Content: "pic", Position: types.Position{X: 300, Y: 400}},
		{ID: "qr", Type: poster.TypeQRCode, Content: "https://example.com", Position: types.Position{X: 500, Y: 600}},
		{ID: "t", Type: poster.TypeTitle, Content: "HELLO", Position: types.Position{X: 20, Y: 150}, Color: "#00FF00"},
	}

	img, err := r.Render(context.Background(), opts)
	require.NoError(t, err)

	near(t, blue, rgbaAt(img, 25, 420), "colour block")
	near(t, red, rgbaAt(img, 45, 420), "grid cell beside the colour block")
	near(t, green, rgbaAt(img, 440, 540), "image element uses the 150px default")
	assert.Equal(t, []string{"grid", "pic"}, loader.order)

	found := false
	for y := 150; y < 150+48 && !found; y++ {
		for x := 20; x < 200; x++ {
			c := rgbaAt(img, x, y)
			if c.G > 200 && c.R < 80 && c.B < 80 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "title text is drawn below its position")
}

func TestRenderElementLoadFailure(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["grid"] = solidImage(4, 4, red)
	r := newTestRenderer(t, loader)

	opts := DefaultOptions()
	opts.Images = []string{"grid"}
	opts.AdvancedMode = true
	opts.Layout.Elements = []poster.Element{{ID: "pic", Type: poster.TypeImage, Content: "nope"}}

	_, err := r.Render(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element pic")
}

func TestRenderRejectsInvalidLayout(t *testing.T) {
	loader := newRecordingLoader()
	loader.images["grid"] = solidImage(4, 4, red)
	r := newTestRenderer(t, loader)

	cases := []struct {
		name     string
		elements []poster.Element
		want     error
	}{
		{"oversized qrcode", []poster.Element{{ID: "qr", Type: poster.TypeQRCode, Content: "x", Width: 20000, Height: 20000}}, poster.ErrOutOfRange},
		{"font size", []poster.Element{{ID: "t", Type: poster.TypeText, Content: "x", FontSize: 5000}}, poster.ErrOutOfRange},
		{"negative block", []poster.Element{{ID: "b", Type: poster.TypeColorBlock, Width: -40}}, poster.ErrOutOfRange},
		{"duplicate ids", []poster.Element{{ID: "dup", Type: poster.TypeText, Content: "a"}, {ID: "dup", Type: poster.TypeText, Content: "b"}}, poster.ErrDuplicateID},
		{"unknown type", []poster.Element{{ID: "x", Type: "bogus"}}, poster.ErrUnknownType},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Images = []string{"grid"}
			opts.AdvancedMode = true
			opts.Layout.Elements = tt.elements
			_, err := r.Render(context.Background(), opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, loader.order, "nothing is loaded for a rejected layout")
}

func TestRenderDataURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(20, 20, red)))
	src := imgio.DataURL("image/png", buf.Bytes())

	r := newTestRenderer(t, NewLoader(imgio.NewProcessor(), nil))
	opts := DefaultOptions()
	opts.Images = []string{src}

	out, err := r.RenderDataURL(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))

	decoded, err := imgio.NewProcessor().DecodeDataURL(out)
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
	assert.Equal(t, 854, decoded.Bounds().Dy())
}

func TestLoaderResolvesPreviews(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(3, 3, green)))

	reg := poster.NewPreviewRegistry(nil)
	p := reg.Create("g.png", "image/png", buf.Bytes())
	l := NewLoader(imgio.NewProcessor(), reg)

	img, err := l.Load(context.Background(), PreviewScheme+p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	p.Release()
	_, err = l.Load(context.Background(), PreviewScheme+p.ID)
	assert.ErrorIs(t, err, ErrUnresolvable)

	_, err = l.Load(context.Background(), "ftp://x")
	assert.ErrorIs(t, err, ErrUnresolvable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStyles(t *testing.T) {
	all := Styles()
	require.Len(t, all, 8)
	s, ok := StyleByID("perfume-elegant")
	require.True(t, ok)
	assert.Contains(t, s.Background, "linear-gradient")
	_, ok = StyleByID("none")
	assert.False(t, ok)
}

func TestFileName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "grid-poster-1700000000123.jpg", FileName("", at))
	assert.Equal(t, "poster-food-vibrant-1700000000123.jpg", FileName("food-vibrant", at))
}

func BenchmarkRender(b *testing.B) {
	loader := newRecordingLoader()
	refs := make([]string, 9)
	for i := range refs {
		refs[i] = string(rune('a' + i))
		loader.images[refs[i]] = solidImage(300, 300, red)
	}
	r, err := NewRenderer(Config{}, loader, nil)
	if err != nil {
		b.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Images = refs
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.RenderJPEG(context.Background(), opts); err != nil {
			b.Fatal(err)
		}
	}
}
