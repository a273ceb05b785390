package crop

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/types"
)

// Quality bounds for lossy export
const (
	MinQuality     = 0.7
	MaxQuality     = 1.0
	DefaultQuality = 0.8
)

// FormatOriginal keeps each image in the format it was uploaded in
const FormatOriginal = "original"

var (
	ErrNoImages      = errors.New("没有可下载的图片")
	ErrQualityRange  = errors.New("quality must be between 0.7 and 1.0")
	ErrItemNotFound  = errors.New("image not found")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Item is one image of a batch with its pending edit
type Item struct {
	Name string
	Data []byte
	Edit Params
}

// Batch holds images waiting for export
type Batch struct {
	processor *imgio.Processor

	mu    sync.Mutex
	items []Item
}

// NewBatch creates an empty batch
func NewBatch(p *imgio.Processor) *Batch {
	if p == nil {
		p = imgio.NewProcessor()
	}
	return &Batch{processor: p}
}

// Add appends image uploads and returns how many were accepted
func (b *Batch) Add(uploads ...types.Upload) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, u := range uploads {
		if !utils.IsImageUpload(u.Name, u.ContentType) {
			continue
		}
		b.items = append(b.items, Item{Name: u.Name, Data: u.Data})
		n++
	}
	return n
}

// Items returns a copy of the batch in order
func (b *Batch) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of images
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// SetEdit stores the edit for the i-th image. The edit is checked against the image first.
func (b *Batch) SetEdit(i int, p Params) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.items) {
		return fmt.Errorf("%w: index %d", ErrItemNotFound, i)
	}
	img, err := b.processor.Decode(b.items[i].Data)
	if err != nil {
		return err
	}
	if _, err := Apply(img, p); err != nil {
		return err
	}
	b.items[i].Edit = p
	return nil
}

// Remove drops the i-th image
func (b *Batch) Remove(i int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.items) {
		return fmt.Errorf("%w: index %d", ErrItemNotFound, i)
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	return nil
}

// ArchiveName returns the export file name for t, e.g. images-2024-01-02T15-04-05.zip
func ArchiveName(t time.Time) string {
	return utils.TimestampedName("images-", "zip", t)
}

// ExportOptions selects the output encoding
type ExportOptions struct {
	Format  string  `json:"format"`
	Quality float64 `json:"quality"`
}

// Validate checks the format and the quality range. Quality 0 means the default.
func (o ExportOptions) Validate() error {
	if o.Quality != 0 && (o.Quality < MinQuality || o.Quality > MaxQuality) {
		return fmt.Errorf("%w: %.2f", ErrQualityRange, o.Quality)
	}
	if o.Format == "" || o.Format == FormatOriginal {
		return nil
	}
	if _, err := imgio.ParseFormat(o.Format); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, o.Format)
	}
	return nil
}

// Export writes every image of the batch to a ZIP archive
func (b *Batch) Export(w io.Writer, opts ExportOptions) error {
	return Export(w, b.processor, b.Items(), opts)
}

// Export writes items to a ZIP archive. With the original format, unedited images are
// copied byte for byte and edited ones are re-encoded in their source format.
func Export(w io.Writer, p *imgio.Processor, items []Item, opts ExportOptions) error {
	if len(items) == 0 {
		return ErrNoImages
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}

	zw := zip.NewWriter(w)
	used := make(map[string]int)
	for _, it := range items {
		name, data, err := encode(p, it, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", it.Name, err)
		}
		fw, err := zw.Create(uniqueName(used, name))
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Encode renders one item the way Export writes it and returns its file name
func Encode(p *imgio.Processor, it Item, opts ExportOptions) (string, []byte, error) {
	if err := opts.Validate(); err != nil {
		return "", nil, err
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	return encode(p, it, opts)
}

func encode(p *imgio.Processor, it Item, opts ExportOptions) (string, []byte, error) {
	base := utils.BaseName(it.Name)
	srcExt := strings.TrimPrefix(strings.ToLower(path.Ext(it.Name)), ".")

	if opts.Format == "" || opts.Format == FormatOriginal {
		if it.Edit.IsZero() {
			return base + "." + srcExt, it.Data, nil
		}
		ext := srcExt
		format, err := imgio.ParseFormat(srcExt)
		if err != nil {
			format, ext = imgio.FormatPNG, imgio.FormatPNG.Ext()
		}
		data, err := render(p, it, format, opts.Quality)
		return base + "." + ext, data, err
	}

	format, err := imgio.ParseFormat(opts.Format)
	if err != nil {
		return "", nil, err
	}
	data, err := render(p, it, format, opts.Quality)
	return base + "." + format.Ext(), data, err
}

func render(p *imgio.Processor, it Item, format imgio.Format, quality float64) ([]byte, error) {
	img, err := p.Decode(it.Data)
	if err != nil {
		return nil, err
	}
	img, err = Apply(img, it.Edit)
	if err != nil {
		return nil, err
	}
	return p.Encode(img, format, quality)
}

// uniqueName appends -2, -3 ... to repeated names
func uniqueName(used map[string]int, name string) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}
