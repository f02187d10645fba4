package content

import (
	"fmt"
	"sort"
)

// Entry is a registry row. Instance is the id of the decal instance showing
// the content, empty while nothing shows it.
type Entry struct {
	Content  *Content
	Instance string
	// Pinned entries survive sweeps without a back-reference. Content is
	// pinned from registration until it is linked or released.
	Pinned bool

	seq uint64
}

// Registry keeps images and texts in separate tables keyed by ID. It is
// owned by a single goroutine.
type Registry struct {
	images map[ID]*Entry
	texts  map[ID]*Entry
	seq    uint64
}

// NewRegistry returns empty image and text tables.
func NewRegistry() *Registry {
	return &Registry{
		images: make(map[ID]*Entry),
		texts:  make(map[ID]*Entry),
	}
}

func (r *Registry) table(k Kind) map[ID]*Entry {
	if k == KindText {
		return r.texts
	}
	return r.images
}

func (r *Registry) entry(id ID) (*Entry, bool) {
	if e, ok := r.images[id]; ok {
		return e, true
	}
	e, ok := r.texts[id]
	return e, ok
}

// Register stores p under a fresh id. The entry starts pinned.
func (r *Registry) Register(p Payload) *Content {
	r.seq++
	c := &Content{ID: NewID(), Payload: p}
	r.table(p.Kind())[c.ID] = &Entry{Content: c, Pinned: true, seq: r.seq}
	return c
}

// Link records instance as the one showing id and unpins the entry.
func (r *Registry) Link(id ID, instance string) bool {
	e, ok := r.entry(id)
	if !ok {
		return false
	}
	e.Instance = instance
	e.Pinned = false
	return true
}

// Unlink clears the back-reference of id if it still points at instance.
func (r *Registry) Unlink(id ID, instance string) bool {
	e, ok := r.entry(id)
	if !ok || e.Instance != instance {
		return false
	}
	e.Instance = ""
	return true
}

// Pin protects id from sweeping until the next Link or Release.
func (r *Registry) Pin(id ID) {
	if e, ok := r.entry(id); ok {
		e.Pinned = true
	}
}

// Release unpins id, for placements that were abandoned.
func (r *Registry) Release(id ID) {
	if e, ok := r.entry(id); ok {
		e.Pinned = false
	}
}

// SweepOrphans drops entries that are neither linked nor pinned and reports
// how many were removed.
func (r *Registry) SweepOrphans() int {
	n := 0
	for _, t := range []map[ID]*Entry{r.images, r.texts} {
		for id, e := range t {
			if e.Instance == "" && !e.Pinned {
				delete(t, id)
				n++
			}
		}
	}
	return n
}

// EditText re-renders a text entry in place. The id is kept and the entry is
// pinned so the caller can replace the showing instance without the sweep
// that follows the removal dropping it.
func (r *Registry) EditText(id ID, fonts *Fonts, text string, style TextStyle) (*Content, error) {
	e, ok := r.texts[id]
	if !ok {
		return nil, fmt.Errorf("content: no text entry %s", id)
	}
	rendered, err := fonts.Rasterize(text, style)
	if err != nil {
		return nil, err
	}
	e.Content.Payload = rendered
	e.Pinned = true
	return e.Content, nil
}

// Clear drops every entry, pinned or not.
func (r *Registry) Clear() {
	clear(r.images)
	clear(r.texts)
}

// Get returns the content stored under id.
func (r *Registry) Get(id ID) (*Content, bool) {
	e, ok := r.entry(id)
	if !ok {
		return nil, false
	}
	return e.Content, true
}

// Lookup returns a copy of the entry for id.
func (r *Registry) Lookup(id ID) (Entry, bool) {
	e, ok := r.entry(id)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Images returns the image entries in registration order.
func (r *Registry) Images() []Entry {
	return sorted(r.images)
}

// Texts returns the text entries in registration order.
func (r *Registry) Texts() []Entry {
	return sorted(r.texts)
}

func (r *Registry) Len() int {
	return len(r.images) + len(r.texts)
}

func sorted(t map[ID]*Entry) []Entry {
	out := make([]Entry, 0, len(t))
	for _, e := range t {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
