package thread

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"manhwahub/internal/discussion/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CommentsTab is the tab whose activation loads the thread
const CommentsTab = "comments"

// Fetcher downloads the rendered thread fragment
type Fetcher interface {
	LoadThread(ctx context.Context, manhwaID int64) (string, error)
}

// Container is where the fragment ends up
type Container interface {
	SetThreadHTML(html string)
}

// Seeder receives the reaction state found in the fragment
type Seeder interface {
	Seed(id models.CommentID, r models.CommentReactions)
}

// FragmentCache shares fragments between page sessions of the same viewer
type FragmentCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, html string) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	ManhwaID int64
	// ViewerKey scopes cached fragments, they carry the viewer's own reaction markers
	ViewerKey string
	Cache     FragmentCache
}

// Loader fetches the comment thread once per page lifetime
type Loader struct {
	fetcher   Fetcher
	container Container
	seeder    Seeder
	session   *models.SessionState
	opts      Options
	group     singleflight.Group
	fetches   atomic.Int64
	log       zerolog.Logger

	mu       sync.RWMutex
	comments []ParsedComment
}

func NewLoader(fetcher Fetcher, container Container, seeder Seeder, session *models.SessionState, opts Options, log zerolog.Logger) *Loader {
	return &Loader{
		fetcher:   fetcher,
		container: container,
		seeder:    seeder,
		session:   session,
		opts:      opts,
		log:       log.With().Str("component", "thread").Int64("manhwa_id", opts.ManhwaID).Logger(),
	}
}

// OnTabActivated loads the thread when the comments tab becomes active
func (l *Loader) OnTabActivated(ctx context.Context, tab string) error {
	if tab != CommentsTab {
		return nil
	}
	return l.EnsureThreadLoaded(ctx)
}

// EnsureThreadLoaded fetches the thread on the first call and does nothing afterwards.
// Concurrent first calls share one fetch. A failed fetch can be retried.
func (l *Loader) EnsureThreadLoaded(ctx context.Context) error {
	if l.session.ThreadLoaded() {
		return nil
	}

	_, err, _ := l.group.Do("thread", func() (any, error) {
		if l.session.ThreadLoaded() {
			return nil, nil
		}

		html, cached, err := l.fragment(ctx)
		if err != nil {
			return nil, err
		}

		sanitized := Sanitize(html)
		parsed, err := ParseFragment(sanitized)
		if err != nil {
			return nil, err
		}
		if !cached {
			l.store(ctx, html)
		}

		l.container.SetThreadHTML(sanitized)
		for _, c := range parsed {
			l.seeder.Seed(c.ID, c.Reactions)
		}
		l.mu.Lock()
		l.comments = parsed
		l.mu.Unlock()

		l.session.MarkThreadLoaded()
		l.log.Info().Int("comments", len(parsed)).Msg("thread loaded")
		return nil, nil
	})
	if err != nil {
		l.log.Warn().Err(err).Msg("thread load failed")
		return fmt.Errorf("load thread: %w", err)
	}
	return nil
}

// Fetches returns how many network fetches this loader issued
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

// Comments returns the comments found in the loaded fragment
func (l *Loader) Comments() []ParsedComment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ParsedComment(nil), l.comments...)
}

// Find looks up a comment of the loaded fragment
func (l *Loader) Find(id models.CommentID) (ParsedComment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.comments {
		if c.ID == id {
			return c, true
		}
	}
	return ParsedComment{}, false
}

func (l *Loader) cacheKey() string {
	return fmt.Sprintf("thread:manhwa:%d:viewer:%s", l.opts.ManhwaID, l.opts.ViewerKey)
}

// fragment returns the thread html and whether it came from the cache
func (l *Loader) fragment(ctx context.Context) (string, bool, error) {
	if l.opts.Cache != nil {
		html, ok, err := l.opts.Cache.Get(ctx, l.cacheKey())
		if err != nil {
			l.log.Warn().Err(err).Msg("fragment cache read failed")
		} else if ok {
			l.log.Debug().Msg("fragment cache hit")
			return html, true, nil
		}
	}

	l.fetches.Add(1)
	html, err := l.fetcher.LoadThread(ctx, l.opts.ManhwaID)
	if err != nil {
		return "", false, err
	}
	return html, false, nil
}

func (l *Loader) store(ctx context.Context, html string) {
	if l.opts.Cache == nil {
		return
	}
	if err := l.opts.Cache.Set(ctx, l.cacheKey(), html); err != nil {
		l.log.Warn().Err(err).Msg("fragment cache write failed")
	}
}

// Invalidate drops the viewer's cached fragment after the server side thread changed
func (l *Loader) Invalidate(ctx context.Context) {
	if l.opts.Cache == nil {
		return
	}
	if err := l.opts.Cache.Delete(ctx, l.cacheKey()); err != nil {
		l.log.Warn().Err(err).Msg("fragment cache invalidation failed")
		return
	}
	l.log.Debug().Msg("fragment cache invalidated")
}
