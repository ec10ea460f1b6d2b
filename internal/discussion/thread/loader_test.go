package thread

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/view"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	html  string
	errs  []error // returned in order before succeeding
}

func (f *countingFetcher) LoadThread(ctx context.Context, manhwaID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.html, nil
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSeeder struct {
	mu     sync.Mutex
	seeded map[models.CommentID]models.CommentReactions
}

func newRecordingSeeder() *recordingSeeder {
	return &recordingSeeder{seeded: make(map[models.CommentID]models.CommentReactions)}
}

func (r *recordingSeeder) Seed(id models.CommentID, s models.CommentReactions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded[id] = s
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]string
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	html, ok := m.items[key]
	return html, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = html
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func fragment(t *testing.T) string {
	t.Helper()
	parent := models.CommentID(1)
	first, err := view.RenderComment(
		&models.Comment{ID: 2, AuthorName: "mina", Text: "me too\nreally", ParentID: &parent, CreatedOrModifiedAt: "1 hour"},
		models.CommentReactions{State: models.StateDisliked, Counts: models.ReactionCounts{Likes: 0, Dislikes: 2}},
	)
	require.NoError(t, err)
	second, err := view.RenderComment(
		&models.Comment{ID: 1, AuthorName: "jun", Text: "great chapter", CreatedOrModifiedAt: "2 hours"},
		models.CommentReactions{State: models.StateLiked, Counts: models.ReactionCounts{Likes: 5, Dislikes: 1}},
	)
	require.NoError(t, err)
	return string(first) + string(second)
}

func newLoader(f Fetcher, opts Options) (*Loader, *view.Document, *recordingSeeder, *models.SessionState) {
	doc := view.NewDocument()
	seeder := newRecordingSeeder()
	session := models.NewSessionState()
	return NewLoader(f, doc, seeder, session, opts, zerolog.Nop()), doc, seeder, session
}

func TestEnsureThreadLoadedFetchesOnce(t *testing.T) {
	fetcher := &countingFetcher{html: fragment(t)}
	loader, doc, seeder, session := newLoader(fetcher, Options{ManhwaID: 4})

	for i := 0; i < 5; i++ {
		require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	}

	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, int64(1), loader.Fetches())
	assert.True(t, session.ThreadLoaded())
	assert.Contains(t, doc.ThreadHTML(), "great chapter")

	assert.Equal(t, models.CommentReactions{State: models.StateLiked, Counts: models.ReactionCounts{Likes: 5, Dislikes: 1}}, seeder.seeded[1])
	assert.Equal(t, models.CommentReactions{State: models.StateDisliked, Counts: models.ReactionCounts{Dislikes: 2}}, seeder.seeded[2])
}

func TestEnsureThreadLoadedConcurrentCallsShareFetch(t *testing.T) {
	fetcher := &countingFetcher{html: fragment(t)}
	loader, _, _, _ := newLoader(fetcher, Options{ManhwaID: 4})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, loader.EnsureThreadLoaded(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetcher.Calls())
}

func TestEnsureThreadLoadedRetriesAfterFailure(t *testing.T) {
	fetcher := &countingFetcher{html: fragment(t), errs: []error{errors.New("502 Bad Gateway")}}
	loader, doc, _, session := newLoader(fetcher, Options{ManhwaID: 4})

	err := loader.EnsureThreadLoaded(context.Background())
	require.Error(t, err)
	assert.False(t, session.ThreadLoaded())
	assert.Empty(t, doc.ThreadHTML())

	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 2, fetcher.Calls())
	assert.True(t, session.ThreadLoaded())
}

func TestOnTabActivated(t *testing.T) {
	fetcher := &countingFetcher{html: fragment(t)}
	loader, _, _, _ := newLoader(fetcher, Options{ManhwaID: 4})

	require.NoError(t, loader.OnTabActivated(context.Background(), "episodes"))
	assert.Equal(t, 0, fetcher.Calls())

	require.NoError(t, loader.OnTabActivated(context.Background(), CommentsTab))
	require.NoError(t, loader.OnTabActivated(context.Background(), "episodes"))
	require.NoError(t, loader.OnTabActivated(context.Background(), CommentsTab))
	assert.Equal(t, 1, fetcher.Calls())
}

func TestCacheHitSkipsFetch(t *testing.T) {
	cache := &memoryCache{items: map[string]string{}}

	first := &countingFetcher{html: fragment(t)}
	loader, _, _, _ := newLoader(first, Options{ManhwaID: 4, ViewerKey: "jun", Cache: cache})
	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 1, first.Calls())
	assert.Contains(t, cache.items, "thread:manhwa:4:viewer:jun")

	second := &countingFetcher{html: "unused"}
	other, doc, seeder, _ := newLoader(second, Options{ManhwaID: 4, ViewerKey: "jun", Cache: cache})
	require.NoError(t, other.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 0, second.Calls())
	assert.Contains(t, doc.ThreadHTML(), "great chapter")
	assert.Len(t, seeder.seeded, 2)

	// another viewer never sees jun's markers
	third := &countingFetcher{html: fragment(t)}
	stranger, _, _, _ := newLoader(third, Options{ManhwaID: 4, ViewerKey: "mina", Cache: cache})
	require.NoError(t, stranger.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 1, third.Calls())
}

func TestMalformedFragmentIsNotCached(t *testing.T) {
	cache := &memoryCache{items: map[string]string{}}
	fetcher := &countingFetcher{html: `<div class="comment-box" data-comment-id="abc"></div>`}
	loader, _, _, session := newLoader(fetcher, Options{ManhwaID: 4, ViewerKey: "jun", Cache: cache})

	require.Error(t, loader.EnsureThreadLoaded(context.Background()))
	assert.False(t, session.ThreadLoaded())
	assert.Empty(t, cache.items)

	// the retry goes back to the network
	fetcher.mu.Lock()
	fetcher.html = fragment(t)
	fetcher.mu.Unlock()
	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 2, fetcher.Calls())
	assert.Contains(t, cache.items, "thread:manhwa:4:viewer:jun")
}

func TestInvalidateDropsViewerFragment(t *testing.T) {
	cache := &memoryCache{items: map[string]string{}}
	loader, _, _, _ := newLoader(&countingFetcher{html: fragment(t)}, Options{ManhwaID: 4, ViewerKey: "jun", Cache: cache})
	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))
	cache.items["thread:manhwa:4:viewer:mina"] = "other"

	loader.Invalidate(context.Background())
	assert.NotContains(t, cache.items, "thread:manhwa:4:viewer:jun")
	assert.Contains(t, cache.items, "thread:manhwa:4:viewer:mina")

	next := &countingFetcher{html: fragment(t)}
	other, _, _, _ := newLoader(next, Options{ManhwaID: 4, ViewerKey: "jun", Cache: cache})
	require.NoError(t, other.EnsureThreadLoaded(context.Background()))
	assert.Equal(t, 1, next.Calls())
}

func TestInvalidateWithoutCache(t *testing.T) {
	loader, _, _, _ := newLoader(&countingFetcher{html: fragment(t)}, Options{ManhwaID: 4})
	assert.NotPanics(t, func() { loader.Invalidate(context.Background()) })
}

func TestFindParsedComment(t *testing.T) {
	loader, _, _, _ := newLoader(&countingFetcher{html: fragment(t)}, Options{ManhwaID: 4})
	require.NoError(t, loader.EnsureThreadLoaded(context.Background()))

	c, ok := loader.Find(2)
	require.True(t, ok)
	assert.Equal(t, "mina", c.Author)
	assert.Equal(t, "me too\nreally", c.Text)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, models.CommentID(1), *c.ParentID)

	_, ok = loader.Find(99)
	assert.False(t, ok)
	assert.Len(t, loader.Comments(), 2)
}

func TestSanitizeStripsScriptsAndHandlers(t *testing.T) {
	dirty := `<div class="comment-box" data-comment-id="3" onclick="steal()"><script>alert(1)</script>` +
		`<button class="comment-like-3 active" onclick="reactionHandler(3, 'lk')">lk:<span id="likeCount-3">1</span></button></div>`

	clean := Sanitize(dirty)
	assert.NotContains(t, clean, "script")
	assert.NotContains(t, clean, "onclick")
	assert.Contains(t, clean, `data-comment-id="3"`)
	assert.Contains(t, clean, "comment-like-3 active")

	parsed, err := ParseFragment(clean)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, models.StateLiked, parsed[0].Reactions.State)
	assert.Equal(t, 1, parsed[0].Reactions.Counts.Likes)
}

func TestParseFragmentRejectsBadID(t *testing.T) {
	_, err := ParseFragment(`<div class="comment-box" data-comment-id="abc"></div>`)
	assert.Error(t, err)
}

func TestParseFragmentEmpty(t *testing.T) {
	parsed, err := ParseFragment(strings.TrimSpace("  "))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestNilRedisCacheIsNoop(t *testing.T) {
	var cache *RedisFragmentCache

	html, ok, err := cache.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, html)
	assert.NoError(t, cache.Set(context.Background(), "k", "v"))
	assert.NoError(t, cache.Delete(context.Background(), "k"))
	assert.NoError(t, cache.Close())
}

func TestNewRedisFragmentCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisFragmentCache("not-a-url", "", 0)
	assert.Error(t, err)
}
