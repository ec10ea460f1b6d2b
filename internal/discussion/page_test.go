package discussion_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"manhwahub/internal/devserver"
	"manhwahub/internal/discussion"
	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/reaction"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manhwaID = 7

func setupSite(t *testing.T) (*devserver.Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := devserver.New([]byte("page-test-secret"), zerolog.Nop())
	require.NoError(t, srv.Sessions.Register("jun", "pw"))

	_, fields := srv.Store.CreateComment(manhwaID, "mina", "great chapter", nil)
	require.Nil(t, fields)
	_, _, err := srv.Store.Toggle("mina", 1, models.Like)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return srv, ts
}

func loggedInPage(t *testing.T, ts *httptest.Server, cfg discussion.PageConfig) (*discussion.DetailPage, *client.HTTPClient) {
	t.Helper()
	api, err := client.NewHTTPClient(ts.URL, client.Options{Timeout: 2 * time.Second, RequestsPerSecond: 100, Burst: 20, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = api.Login(context.Background(), &client.LoginRequest{Username: "jun", Password: "pw"})
	require.NoError(t, err)
	_, ok := api.CSRF().Token()
	require.True(t, ok, "login response should hand out a csrf cookie")

	cfg.ManhwaID = manhwaID
	if cfg.NotifyTTL == 0 {
		cfg.NotifyTTL = time.Minute
	}
	page := discussion.NewDetailPage(api, cfg, zerolog.Nop())
	t.Cleanup(page.Close)
	return page, api
}

// memoryFragmentCache stands in for redis across page lifetimes
type memoryFragmentCache struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemoryFragmentCache() *memoryFragmentCache {
	return &memoryFragmentCache{items: make(map[string]string)}
}

func (m *memoryFragmentCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	html, ok := m.items[key]
	return html, ok, nil
}

func (m *memoryFragmentCache) Set(_ context.Context, key, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = html
	return nil
}

func (m *memoryFragmentCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func successTexts(page *discussion.DetailPage) []string {
	var out []string
	for _, m := range page.Notifications.Messages() {
		out = append(out, m.Text)
	}
	return out
}

func TestThreadLoadsOnceAndSeedsReactions(t *testing.T) {
	_, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()

	require.NoError(t, page.ActivateTab(ctx, "comments"))
	require.NoError(t, page.ActivateTab(ctx, "episodes"))
	require.NoError(t, page.ActivateTab(ctx, "comments"))

	assert.Equal(t, int64(1), page.Thread.Fetches())
	assert.True(t, page.Session.ThreadLoaded())

	state, ok := page.Reactions.Snapshot(1)
	require.True(t, ok)
	assert.Equal(t, models.StateNone, state.State)
	assert.Equal(t, models.ReactionCounts{Likes: 1}, state.Counts)
}

func TestSubmitCommentEndToEnd(t *testing.T) {
	srv, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()
	require.NoError(t, page.ActivateTab(ctx, "comments"))

	page.Document.SetDraft("hello\nworld")
	comment, err := page.Comments.SubmitDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jun", comment.AuthorName)

	local := page.Document.Comments()
	require.Len(t, local, 1)
	assert.Contains(t, string(local[0].HTML), "hello<br>world")
	assert.Empty(t, page.Document.Draft())
	assert.Contains(t, successTexts(page), "comment successfully added.")

	// the fresh comment has no reactions and reacts like any other
	outcome, err := page.React(ctx, comment.ID, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionAdd, outcome.Action)
	assert.Equal(t, models.ReactionCounts{Dislikes: 1}, outcome.Final.Counts)

	thread := srv.Store.Thread(manhwaID, "jun")
	require.Len(t, thread, 2)
	assert.Equal(t, comment.ID, thread[0].Comment.ID)
}

func TestReplyFlow(t *testing.T) {
	srv, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()
	require.NoError(t, page.ActivateTab(ctx, "comments"))

	parent, ok := page.Thread.Find(1)
	require.True(t, ok)
	page.Comments.BeginReply(parent.ID, parent.Text, parent.Author)
	require.NotNil(t, page.Document.ReplyPreview())
	assert.Equal(t, "mina", page.Document.ReplyPreview().Author)

	page.Document.SetDraft("agreed")
	reply, err := page.Comments.SubmitDraft(ctx)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, models.CommentID(1), *reply.ParentID)

	// replies are not synthesized locally by default
	assert.Empty(t, page.Document.Comments())
	assert.Nil(t, page.Session.ActiveReplyTarget())
	assert.Nil(t, page.Document.ReplyPreview())
	assert.Contains(t, successTexts(page), "your comment successfully replied.")
	assert.Len(t, srv.Store.Thread(manhwaID, "jun"), 2)
}

func TestValidationErrorsReachNotifications(t *testing.T) {
	_, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})

	_, err := page.Comments.SubmitComment(context.Background(), "<b>hi</b>", nil)
	require.Error(t, err)
	assert.Equal(t, []string{"text: text cant be included html tags."}, page.Notifications.ErrorLines())
	assert.Empty(t, page.Document.Comments())
}

func TestReactionToggleAgainstServer(t *testing.T) {
	_, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()
	require.NoError(t, page.ActivateTab(ctx, "comments"))

	outcome, err := page.React(ctx, 1, models.Like)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionAdd, outcome.Action)
	assert.Equal(t, models.CommentReactions{State: models.StateLiked, Counts: models.ReactionCounts{Likes: 2}}, outcome.Final)

	outcome, err = page.React(ctx, 1, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionChange, outcome.Action)
	assert.Equal(t, models.ReactionCounts{Likes: 1, Dislikes: 1}, outcome.Final.Counts)
	assert.Equal(t, 1, page.Document.ActiveButtons(1))

	outcome, err = page.React(ctx, 1, models.Dislike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionDelete, outcome.Action)
	assert.Equal(t, models.CommentReactions{State: models.StateNone, Counts: models.ReactionCounts{Likes: 1}}, outcome.Final)
	assert.Equal(t, 0, page.Document.ActiveButtons(1))

	html, err := page.Document.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `<span id="likeCount-1">1</span>`)
	assert.False(t, strings.Contains(html, "comment-dislike-1 active"))
}

func TestMissingCSRFRollsBack(t *testing.T) {
	_, ts := setupSite(t)
	page, api := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()
	require.NoError(t, page.ActivateTab(ctx, "comments"))

	// drop the token from the jar
	api.SetCookies([]*http.Cookie{{Name: client.DefaultCSRFCookieName, Value: "", MaxAge: -1, Path: "/"}})
	_, ok := api.CSRF().Token()
	require.False(t, ok)

	before, _ := page.Reactions.Snapshot(1)
	outcome, err := page.React(ctx, 1, models.Like)
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, before, outcome.Final)
	after, _ := page.Reactions.Snapshot(1)
	assert.Equal(t, before, after)
	require.Len(t, page.Notifications.ErrorLines(), 1)
	assert.Contains(t, page.Notifications.ErrorLines()[0], "CSRF")

	// the rejected response handed out a new token, so the next click goes through
	_, err = page.React(ctx, 1, models.Like)
	require.NoError(t, err)
}

func TestRecordView(t *testing.T) {
	srv, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})

	<-page.RecordView(context.Background())
	<-page.RecordView(context.Background())
	assert.Equal(t, 1, srv.Store.Views(manhwaID))
}

func TestRenderRepliesOption(t *testing.T) {
	_, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{RenderReplies: true})

	parent := models.CommentID(1)
	reply, err := page.Comments.SubmitComment(context.Background(), "me too", &parent)
	require.NoError(t, err)

	local := page.Document.Comments()
	require.Len(t, local, 1)
	assert.Equal(t, reply.ID, local[0].Comment.ID)
	assert.Contains(t, string(local[0].HTML), `data-parent-id="1"`)
}

func TestCommentPostedBeforeThreadLoadRendersOnce(t *testing.T) {
	_, ts := setupSite(t)
	page, _ := loggedInPage(t, ts, discussion.PageConfig{})
	ctx := context.Background()

	comment, err := page.Comments.SubmitComment(ctx, "fresh one", nil)
	require.NoError(t, err)
	require.Len(t, page.Document.Comments(), 1)

	require.NoError(t, page.ActivateTab(ctx, "comments"))

	html, err := page.Document.HTML()
	require.NoError(t, err)
	button := `data-comment-id="` + comment.ID.String() + `" data-reaction="lk"`
	assert.Equal(t, 1, strings.Count(html, button))
	assert.Equal(t, 1, strings.Count(html, "fresh one"))
}

func TestCachedThreadFollowsReactions(t *testing.T) {
	_, ts := setupSite(t)
	cache := newMemoryFragmentCache()
	cfg := discussion.PageConfig{ViewerKey: "jun", Cache: cache}
	ctx := context.Background()

	first, _ := loggedInPage(t, ts, cfg)
	require.NoError(t, first.ActivateTab(ctx, "comments"))
	outcome, err := first.React(ctx, 1, models.Like)
	require.NoError(t, err)
	assert.Equal(t, models.CommentReactions{State: models.StateLiked, Counts: models.ReactionCounts{Likes: 2}}, outcome.Final)

	// a later page lifetime must see the like, not the fragment cached before it
	second, _ := loggedInPage(t, ts, cfg)
	require.NoError(t, second.ActivateTab(ctx, "comments"))
	assert.Equal(t, int64(1), second.Thread.Fetches())
	seeded, ok := second.Reactions.Snapshot(1)
	require.True(t, ok)
	assert.Equal(t, models.CommentReactions{State: models.StateLiked, Counts: models.ReactionCounts{Likes: 2}}, seeded)

	outcome, err = second.React(ctx, 1, models.Like)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionDelete, outcome.Action)
	assert.Equal(t, models.CommentReactions{State: models.StateNone, Counts: models.ReactionCounts{Likes: 1}}, outcome.Final)

	// and an accepted comment drops the cached copy too
	third, _ := loggedInPage(t, ts, cfg)
	require.NoError(t, third.ActivateTab(ctx, "comments"))
	_, err = third.Comments.SubmitComment(ctx, "new thoughts", nil)
	require.NoError(t, err)

	fourth, _ := loggedInPage(t, ts, cfg)
	require.NoError(t, fourth.ActivateTab(ctx, "comments"))
	assert.Equal(t, int64(1), fourth.Thread.Fetches())
	assert.Len(t, fourth.Thread.Comments(), 2)
}
