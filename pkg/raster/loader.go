package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/poster"
)

// PreviewScheme prefixes references to images held in a preview registry
const PreviewScheme = "preview:"

// ErrUnresolvable is returned for image references no loader understands
var ErrUnresolvable = errors.New("cannot resolve image reference")

// ImageLoader resolves an image reference to pixels
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Loader resolves data URLs, http(s) URLs and preview ids
type Loader struct {
	processor *imgio.Processor
	previews  *poster.PreviewRegistry
}

// NewLoader creates a loader; previews may be nil
func NewLoader(processor *imgio.Processor, previews *poster.PreviewRegistry) *Loader {
	return &Loader{processor: processor, previews: previews}
}

// Load implements ImageLoader
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(ref, "data:"):
		return l.processor.DecodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.processor.LoadImageFromURL(ref)
	case strings.HasPrefix(ref, PreviewScheme):
		return l.loadPreview(strings.TrimPrefix(ref, PreviewScheme))
	}
	return nil, fmt.Errorf("%w: %.40q", ErrUnresolvable, ref)
}

func (l *Loader) loadPreview(id string) (image.Image, error) {
	if l.previews == nil {
		return nil, fmt.Errorf("%w: no preview registry", ErrUnresolvable)
	}
	p, ok := l.previews.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: preview %s", ErrUnresolvable, id)
	}
	data, err := p.Data()
	if err != nil {
		return nil, err
	}
	return l.processor.Decode(data)
}
