package poster

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Preview is an uploaded image held in memory until it is released.
// Release runs at most once no matter how many owners call it.
type Preview struct {
	ID          string
	Name        string
	ContentType string

	mu       sync.RWMutex
	data     []byte
	once     sync.Once
	released atomic.Bool
	onFree   func(*Preview)
}

// Data returns the image bytes, or ErrPreviewGone after release
func (p *Preview) Data() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.data == nil {
		return nil, ErrPreviewGone
	}
	return p.data, nil
}

// Released reports whether the preview has been released
func (p *Preview) Released() bool {
	return p.released.Load()
}

// Release frees the image bytes. It returns true only for the call that did the work.
func (p *Preview) Release() bool {
	did := false
	p.once.Do(func() {
		p.mu.Lock()
		p.data = nil
		p.mu.Unlock()
		p.released.Store(true)
		if p.onFree != nil {
			p.onFree(p)
		}
		did = true
	})
	return did
}

// PreviewRegistry hands out previews by id and forgets them on release
type PreviewRegistry struct {
	mu      sync.RWMutex
	items   map[string]*Preview
	onFree  func(id string)
	created atomic.Int64
	freed   atomic.Int64
}

// NewPreviewRegistry creates an empty registry. onFree, if set, observes every release.
func NewPreviewRegistry(onFree func(id string)) *PreviewRegistry {
	return &PreviewRegistry{
		items:  make(map[string]*Preview),
		onFree: onFree,
	}
}

// Create stores image bytes and returns their preview
func (r *PreviewRegistry) Create(name, contentType string, data []byte) *Preview {
	p := &Preview{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		data:        data,
	}
	p.onFree = r.forget

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()
	r.created.Add(1)
	return p
}

func (r *PreviewRegistry) forget(p *Preview) {
	r.mu.Lock()
	delete(r.items, p.ID)
	r.mu.Unlock()
	r.freed.Add(1)
	if r.onFree != nil {
		r.onFree(p.ID)
	}
}

// Get returns a live preview
func (r *PreviewRegistry) Get(id string) (*Preview, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	return p, ok
}

// Release frees a preview by id; false when it is unknown or already released
func (r *PreviewRegistry) Release(id string) bool {
	p, ok := r.Get(id)
	if !ok {
		return false
	}
	return p.Release()
}

// Len returns the number of live previews
func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Stats returns how many previews were created and released in total
func (r *PreviewRegistry) Stats() (created, released int64) {
	return r.created.Load(), r.freed.Load()
}
