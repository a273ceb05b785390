package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/poster"
)

// ErrNoImages is returned when a poster is rendered without grid images
var ErrNoImages = errors.New("请上传至少一张图片")

// Legacy layout metrics
const (
	legacyLogoSize     = 60
	legacyTitleSize    = 90
	legacySecondSize   = 30
	legacyFooterSize   = 28
	legacyTitleOffsetX = 100
	legacyTitleBase    = 75
	legacyFooterBase   = 38
)

// Background describes the canvas fill
type Background struct {
	Gradient  bool      `json:"gradient"`
	Color     string    `json:"color"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Direction Direction `json:"direction"`
}

// Options is everything one poster render needs
type Options struct {
	Background   Background    `json:"background"`
	HeaderColor  string        `json:"headerColor"`
	FooterColor  string        `json:"footerColor"`
	Text         poster.Text   `json:"text"`
	AdvancedMode bool          `json:"advancedMode"`
	Layout       poster.Layout `json:"layout"`
	// Images are grid references: data URLs, http(s) URLs or "preview:<id>"
	Images []string `json:"images"`
}

// DefaultOptions returns the form defaults of the grid poster tool
func DefaultOptions() Options {
	return Options{
		Background: Background{
			Color:     "#FFFFFF",
			From:      "#FF5722",
			To:        "#2196F3",
			Direction: ToBottom,
		},
		HeaderColor: "#000000",
		FooterColor: "#FF5722",
		Text: poster.Text{
			Title:       "VISION",
			Subtitle:    "视觉大模型",
			SecondTitle: "电商产品 FLUX",
			FooterText:  "HUI MENG DESIGN",
		},
		Layout: poster.Layout{
			HeaderTop:    poster.DefaultBandOffset,
			FooterBottom: poster.DefaultBandOffset,
		},
	}
}

// Config holds renderer settings
type Config struct {
	JPEGQuality int
	FontPath    string
}

// Renderer rasterizes posters onto a fixed 640x854 canvas
type Renderer struct {
	loader    ImageLoader
	fonts     *Fonts
	processor *imgio.Processor
	quality   int
	logger    *zap.Logger
}

// NewRenderer creates a renderer. A nil logger disables logging.
func NewRenderer(cfg Config, loader ImageLoader, logger *zap.Logger) (*Renderer, error) {
	fonts, err := LoadFonts(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Renderer{
		loader:    loader,
		fonts:     fonts,
		processor: imgio.NewProcessor(),
		quality:   quality,
		logger:    logger,
	}, nil
}

// Render draws the poster back to front: background, header, footer, grid, elements.
// Images are loaded one at a time in draw order. The layout is validated first, so
// duplicate ids and out-of-range elements fail before anything is drawn.
func (r *Renderer) Render(ctx context.Context, opts Options) (*image.RGBA, error) {
	if len(opts.Images) == 0 {
		return nil, ErrNoImages
	}
	ed := poster.NewEditor()
	if err := ed.LoadLayout(opts.Layout); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	layout := ed.Layout()
	headerTop := layout.HeaderTop
	footerBottom := layout.FooterBottom

	canvas := image.NewRGBA(image.Rect(0, 0, poster.CanvasWidth, poster.CanvasHeight))
	if err := r.drawBackground(canvas, opts.Background); err != nil {
		return nil, err
	}

	header, err := poster.ParseHexColor(opts.HeaderColor)
	if err != nil {
		return nil, fmt.Errorf("header colour: %w", err)
	}
	footer, err := poster.ParseHexColor(opts.FooterColor)
	if err != nil {
		return nil, fmt.Errorf("footer colour: %w", err)
	}
	fillRoundRect(canvas, image.Rect(0, headerTop, poster.CanvasWidth, headerTop+poster.HeaderHeight), poster.BandRadius, header)
	footerY := FooterTop(footerBottom)
	fillRoundRect(canvas, image.Rect(0, footerY, poster.CanvasWidth, footerY+poster.FooterHeight), poster.BandRadius, footer)

	cells := GridCells(headerTop, footerBottom, len(opts.Images))
	for i, cell := range cells {
		img, err := r.loader.Load(ctx, opts.Images[i])
		if err != nil {
			return nil, fmt.Errorf("grid image %d: %w", i+1, err)
		}
		drawScaled(canvas, cell, img)
	}
	if len(opts.Images) > len(cells) {
		r.logger.Debug("grid images beyond capacity ignored", zap.Int("count", len(opts.Images)-len(cells)))
	}

	faces := r.fonts.NewFaceSet()
	defer faces.Close()

	if opts.AdvancedMode && len(layout.Elements) > 0 {
		err = r.drawElements(ctx, canvas, faces, layout.Elements)
	} else {
		err = r.drawLegacy(ctx, canvas, faces, opts.Text, headerTop, footerY)
	}
	if err != nil {
		return nil, err
	}
	return canvas, nil
}

// RenderJPEG renders and encodes the poster as JPEG
func (r *Renderer) RenderJPEG(ctx context.Context, opts Options) ([]byte, error) {
	img, err := r.Render(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.processor.Encode(img, imgio.FormatJPEG, float64(r.quality)/100)
}

// RenderDataURL renders the poster as a data:image/jpeg;base64 URL
func (r *Renderer) RenderDataURL(ctx context.Context, opts Options) (string, error) {
	data, err := r.RenderJPEG(ctx, opts)
	if err != nil {
		return "", err
	}
	return imgio.DataURL(imgio.FormatJPEG.ContentType(), data), nil
}

func (r *Renderer) drawBackground(canvas *image.RGBA, bg Background) error {
	if bg.Gradient {
		from, err := poster.ParseHexColor(bg.From)
		if err != nil {
			return fmt.Errorf("gradient start: %w", err)
		}
		to, err := poster.ParseHexColor(bg.To)
		if err != nil {
			return fmt.Errorf("gradient end: %w", err)
		}
		fillGradient(canvas, bg.Direction, from, to)
		return nil
	}

	c, err := poster.ParseHexColor(bg.Color)
	if err != nil {
		return fmt.Errorf("background colour: %w", err)
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

func (r *Renderer) drawElements(ctx context.Context, canvas *image.RGBA, faces *FaceSet, elements []poster.Element) error {
	for _, el := range elements {
		if err := r.drawElement(ctx, canvas, faces, el); err != nil {
			return fmt.Errorf("element %s: %w", el.ID, err)
		}
	}
	return nil
}

func (r *Renderer) drawElement(ctx context.Context, canvas *image.RGBA, faces *FaceSet, el poster.Element) error {
	pos := el.Position

	switch el.Type {
	case poster.TypeTitle, poster.TypeSubtitle, poster.TypeText:
		c, err := poster.ParseHexColor(el.EffectiveColor())
		if err != nil {
			return err
		}
		size := el.EffectiveFontSize()
		face, err := faces.Face(float64(size))
		if err != nil {
			return err
		}
		drawText(canvas, face, el.Content, pos.X, pos.Y+size, c, alignLeft)

	case poster.TypeColorBlock:
		c, err := poster.ParseHexColor(el.EffectiveBackground())
		if err != nil {
			return err
		}
		size := el.EffectiveSize()
		fillRect(canvas, image.Rect(pos.X, pos.Y, pos.X+size.Width, pos.Y+size.Height), c)

	case poster.TypeLogo, poster.TypeImage:
		if el.Content == "" {
			return nil
		}
		img, err := r.loader.Load(ctx, el.Content)
		if err != nil {
			return err
		}
		size := el.EffectiveSize()
		if el.Type == poster.TypeLogo {
			size = el.Type.DefaultSize()
		}
		drawScaled(canvas, image.Rect(pos.X, pos.Y, pos.X+size.Width, pos.Y+size.Height), img)

	case poster.TypeQRCode:
		if el.Content == "" {
			return nil
		}
		size := el.EffectiveSize()
		q, err := qrcode.New(el.Content, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("qrcode: %w", err)
		}
		drawScaled(canvas, image.Rect(pos.X, pos.Y, pos.X+size.Width, pos.Y+size.Height), q.Image(max(size.Width, size.Height)))

	default:
		r.logger.Debug("skipping unknown element type", zap.String("type", string(el.Type)))
	}
	return nil
}

func (r *Renderer) drawLegacy(ctx context.Context, canvas *image.RGBA, faces *FaceSet, text poster.Text, headerTop, footerY int) error {
	if text.LogoURL != "" {
		logo, err := r.loader.Load(ctx, text.LogoURL)
		if err != nil {
			return fmt.Errorf("logo: %w", err)
		}
		x := poster.CanvasWidth/2 - legacyLogoSize/2
		y := headerTop - 10
		drawScaled(canvas, image.Rect(x, y, x+legacyLogoSize, y+legacyLogoSize), logo)
	}

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	lines := []struct {
		text string
		size int
		x, y int
	}{
		{text.Title, legacyTitleSize, poster.CanvasWidth/2 - legacyTitleOffsetX, headerTop + legacyTitleBase},
		{text.SecondTitle, legacySecondSize, poster.CanvasWidth/2 + legacyTitleOffsetX, headerTop + legacyTitleBase},
		{text.FooterText, legacyFooterSize, poster.CanvasWidth / 2, footerY + legacyFooterBase},
	}
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		face, err := faces.Face(float64(l.size))
		if err != nil {
			return err
		}
		drawText(canvas, face, l.text, l.x, l.y, white, alignCenter)
	}
	return nil
}
