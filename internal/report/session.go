// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// GalleryLimit is the maximum number of images fetched per card.
const GalleryLimit = 4

// GalleryFetcher retrieves the images attached to a patent.
type GalleryFetcher interface {
	Gallery(ctx context.Context, publicationNumber string, limit int) ([]types.PatentImage, error)
}

// GalleryStatus is the lifecycle of one card's image gallery.
type GalleryStatus string

const (
	GalleryIdle    GalleryStatus = "idle"
	GalleryLoading GalleryStatus = "loading"
	GalleryReady   GalleryStatus = "ready"
	GalleryFailed  GalleryStatus = "failed"
)

// GalleryState is a snapshot of one card's gallery.
type GalleryState struct {
	Open   bool
	Status GalleryStatus
	Images []types.PatentImage
	Err    error
}

type gallery struct {
	open   bool
	status GalleryStatus
	images []types.PatentImage
	err    error
	done   chan struct{}
}

// Session holds the interactive state of one rendered result: which
// abstracts are expanded and which image galleries are open or loaded.
// State is keyed by Card.Key and discarded whenever a different response
// is loaded. A Session is safe for concurrent use.
type Session struct {
	fetcher GalleryFetcher
	logger  *zap.Logger

	mu        sync.Mutex
	gen       uint64
	resp      *types.SearchResponse
	tree      Tree
	expanded  map[string]bool
	galleries map[string]*gallery
}

// NewSession creates an empty session. fetcher may be nil, in which case
// galleries cannot be opened.
func NewSession(fetcher GalleryFetcher, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{fetcher: fetcher, logger: logger}
	s.resetLocked(nil, Render(nil))
	return s
}

// Load renders r and resets all expansion and gallery state, unless r is
// the response already loaded.
func (s *Session) Load(r *types.SearchResponse) Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != nil && r == s.resp {
		return s.tree
	}
	s.resetLocked(r, Render(r))
	return s.tree
}

// LoadTree installs a tree built elsewhere (e.g. by ParseLegacy) and
// resets all state.
func (s *Session) LoadTree(t Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(nil, t)
}

func (s *Session) resetLocked(r *types.SearchResponse, t Tree) {
	s.gen++
	s.resp = r
	s.tree = t
	s.expanded = make(map[string]bool)
	s.galleries = make(map[string]*gallery)
}

// Tree returns the current presentation tree.
func (s *Session) Tree() Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// ToggleAbstract flips the expansion of the card's abstract and returns the
// new state. Cards without an expandable abstract stay collapsed.
func (s *Session) ToggleAbstract(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.tree.Card(key)
	if !ok || !hasExpandable(card) {
		return false
	}
	s.expanded[key] = !s.expanded[key]
	return s.expanded[key]
}

// Expanded reports whether the card's abstract is expanded.
func (s *Session) Expanded(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[key]
}

// DisplayValue returns the text to show for a field of the given card.
// Expanded abstracts drop the trailing ellipsis left by older exports.
func (s *Session) DisplayValue(key string, f DetailField) string {
	if f.Expandable && s.Expanded(key) {
		return format.StripEllipsis(f.Value)
	}
	return f.Value
}

func hasExpandable(c Card) bool {
	for _, f := range c.Fields {
		if f.Expandable {
			return true
		}
	}
	return false
}

// ToggleImages opens or closes the card's image gallery. The first open
// starts one asynchronous fetch; later toggles reuse the cached result.
// A failed fetch is retried only by a new toggle that opens the gallery.
// The returned channel is closed once the gallery is no longer loading.
func (s *Session) ToggleImages(ctx context.Context, key string) (bool, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.tree.Card(key)
	if !ok || !card.ImagesExpandable || s.fetcher == nil {
		return false, closedChan()
	}

	g := s.galleries[key]
	if g == nil {
		g = &gallery{status: GalleryIdle}
		s.galleries[key] = g
	}
	g.open = !g.open

	if !g.open {
		if g.status == GalleryLoading {
			return false, g.done
		}
		return false, closedChan()
	}

	switch g.status {
	case GalleryLoading:
		return true, g.done
	case GalleryReady:
		return true, closedChan()
	}

	g.status = GalleryLoading
	g.err = nil
	g.done = make(chan struct{})
	go s.fetch(ctx, s.gen, key, card.PublicationNumber, g)
	return true, g.done
}

func (s *Session) fetch(ctx context.Context, gen uint64, key, publication string, g *gallery) {
	images, err := s.fetcher.Gallery(ctx, publication, GalleryLimit)
	metrics.GalleryFetchesTotal.WithLabelValues(metrics.Status(err)).Inc()
	if len(images) > GalleryLimit {
		images = images[:GalleryLimit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(g.done)

	if gen != s.gen {
		return
	}
	if err != nil {
		s.logger.Warn("gallery fetch failed",
			zap.String("card", key),
			zap.String("publication_number", publication),
			zap.Error(err))
		g.status = GalleryFailed
		g.err = err
		return
	}
	g.status = GalleryReady
	g.images = images
}

// Gallery returns a snapshot of the card's gallery.
func (s *Session) Gallery(key string) GalleryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.galleries[key]
	if g == nil {
		return GalleryState{Status: GalleryIdle}
	}
	images := make([]types.PatentImage, len(g.images))
	copy(images, g.images)
	return GalleryState{Open: g.open, Status: g.status, Images: images, Err: g.err}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
