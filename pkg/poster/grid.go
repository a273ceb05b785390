package poster

import (
	"fmt"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/types"
)

// MaxGridImages is the 3x3 grid capacity
const MaxGridImages = 9

// Grid is the ordered image sequence of a poster. Removing an image or
// closing the grid releases the previews it owns. It is not safe for concurrent use.
type Grid struct {
	registry *PreviewRegistry
	items    []*Preview
	closed   bool
}

// NewGrid creates an empty grid whose previews live in registry
func NewGrid(registry *PreviewRegistry) *Grid {
	return &Grid{registry: registry}
}

// Add accepts image uploads in order until the grid is full.
// It returns the accepted previews; uploads past the ninth, and non-images, are skipped.
func (g *Grid) Add(uploads ...types.Upload) ([]*Preview, error) {
	if g.closed {
		return nil, ErrGridClosed
	}
	var accepted []*Preview
	for _, u := range uploads {
		if len(g.items) >= MaxGridImages {
			break
		}
		if !utils.IsImageUpload(u.Name, u.ContentType) {
			continue
		}
		p := g.registry.Create(u.Name, u.ContentType, u.Data)
		g.items = append(g.items, p)
		accepted = append(accepted, p)
	}
	if len(accepted) == 0 && len(uploads) > 0 && len(g.items) >= MaxGridImages {
		return nil, ErrGridFull
	}
	return accepted, nil
}

// Items returns the previews in grid order
func (g *Grid) Items() []*Preview {
	out := make([]*Preview, len(g.items))
	copy(out, g.items)
	return out
}

// Len returns the number of images
func (g *Grid) Len() int {
	return len(g.items)
}

// Remove drops the image at index i and releases its preview
func (g *Grid) Remove(i int) error {
	if err := g.check(i); err != nil {
		return err
	}
	p := g.items[i]
	g.items = append(g.items[:i], g.items[i+1:]...)
	p.Release()
	return nil
}

// Swap exchanges two images
func (g *Grid) Swap(i, j int) error {
	if err := g.check(i); err != nil {
		return err
	}
	if err := g.check(j); err != nil {
		return err
	}
	g.items[i], g.items[j] = g.items[j], g.items[i]
	return nil
}

// Move takes the image at from out of the sequence and inserts it at to
func (g *Grid) Move(from, to int) error {
	if err := g.check(from); err != nil {
		return err
	}
	if err := g.check(to); err != nil {
		return err
	}
	p := g.items[from]
	g.items = append(g.items[:from], g.items[from+1:]...)
	g.items = append(g.items[:to], append([]*Preview{p}, g.items[to:]...)...)
	return nil
}

// Close releases every preview. Calling it again does nothing.
func (g *Grid) Close() {
	if g.closed {
		return
	}
	for _, p := range g.items {
		p.Release()
	}
	g.items = nil
	g.closed = true
}

func (g *Grid) check(i int) error {
	if i < 0 || i >= len(g.items) {
		return fmt.Errorf("%w: %d", ErrIndexRange, i)
	}
	return nil
}
