package decalkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/decalkit/content"
)

// ErrStaleGeneration marks acquisitions started before the last garment
// switch. Their results are dropped.
var ErrStaleGeneration = errors.New("decalkit: acquisition outlived its garment")

type acquisition struct {
	generation uint64
	label      string
	payload    content.Payload
	err        error
}

// AcquireImage decodes dataURL in the background. The result is applied by
// Dispatch: on success the image is registered and armed, or staged when a
// drag is in progress.
func (s *Session) AcquireImage(ctx context.Context, dataURL string) {
	s.acquire("image", func() (content.Payload, error) {
		return content.DecodeDataURL(ctx, dataURL)
	})
}

// AcquireText renders text in the background, see AcquireImage.
func (s *Session) AcquireText(ctx context.Context, text string, style content.TextStyle) {
	fonts := s.fonts
	s.acquire("text", func() (content.Payload, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fonts.Rasterize(text, style)
	})
}

func (s *Session) acquire(label string, load func() (content.Payload, error)) {
	gen := s.generation
	results := s.results
	s.pending++
	go func() {
		p, err := load()
		results <- acquisition{generation: gen, label: label, payload: p, err: err}
	}()
}

// Pending is the number of acquisitions not yet dispatched.
func (s *Session) Pending() int {
	return s.pending
}

// Dispatch applies every finished acquisition without blocking and returns
// how many were handled.
func (s *Session) Dispatch() int {
	n := 0
	for {
		select {
		case r := <-s.results:
			s.apply(r)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until one acquisition finishes and applies it.
func (s *Session) Wait(ctx context.Context) error {
	if s.pending == 0 {
		return nil
	}
	select {
	case r := <-s.results:
		s.apply(r)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) apply(r acquisition) {
	s.pending--
	if r.generation != s.generation {
		s.log.Debugf("dropping %s: %v (generation %d, now %d)", r.label, ErrStaleGeneration, r.generation, s.generation)
		return
	}
	if r.err != nil {
		err := fmt.Errorf("decalkit: acquire %s: %w", r.label, r.err)
		s.log.Warnf("%v", err)
		s.notifier.Notify(err)
		// Aborts waiting content, never the drag in progress
		if s.armed != nil && !s.dragging {
			s.disarm()
			s.emit()
		}
		return
	}
	c := s.registry.Register(r.payload)
	s.log.Debugf("acquired %s %s", r.label, c.ID)
	s.Arm(c)
}
