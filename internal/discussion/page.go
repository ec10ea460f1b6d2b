// Package discussion wires the comment and reaction components of one content detail page.
package discussion

import (
	"context"
	"time"

	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/notify"
	"manhwahub/internal/discussion/reaction"
	"manhwahub/internal/discussion/submit"
	"manhwahub/internal/discussion/thread"
	"manhwahub/internal/discussion/view"

	"github.com/rs/zerolog"
)

// API is the server surface the page talks to. *client.HTTPClient implements it.
type API interface {
	reaction.Reactor
	submit.Poster
	thread.Fetcher
	SetView(ctx context.Context, manhwaID int64) (*client.SetViewResponse, error)
}

type PageConfig struct {
	ManhwaID      int64
	RenderReplies bool
	NotifyTTL     time.Duration
	// ViewerKey and Cache enable the shared thread fragment cache
	ViewerKey string
	Cache     thread.FragmentCache
}

// DetailPage holds everything that lives for one page lifetime. Two pages never share state.
type DetailPage struct {
	Session       *models.SessionState
	Document      *view.Document
	Notifications *notify.Center
	Reactions     *reaction.Controller
	Comments      *submit.Submitter
	Thread        *thread.Loader

	api      API
	manhwaID int64
	log      zerolog.Logger
}

func NewDetailPage(api API, cfg PageConfig, log zerolog.Logger) *DetailPage {
	session := models.NewSessionState()
	doc := view.NewDocument()
	center := notify.NewCenter(cfg.NotifyTTL, log)
	reactions := reaction.NewController(api, doc, center, log)

	comments := submit.NewSubmitter(api, doc, session, reactions, center, submit.Options{
		ManhwaID:      cfg.ManhwaID,
		RenderReplies: cfg.RenderReplies,
	}, log)
	loader := thread.NewLoader(api, doc, reactions, session, thread.Options{
		ManhwaID:  cfg.ManhwaID,
		ViewerKey: cfg.ViewerKey,
		Cache:     cfg.Cache,
	}, log)

	// cached fragments carry the viewer's markers, so any accepted change makes them stale
	reactions.InvalidateOnChange(loader)
	comments.InvalidateOnChange(loader)

	return &DetailPage{
		Session:       session,
		Document:      doc,
		Notifications: center,
		Reactions:     reactions,
		Comments:      comments,
		Thread:        loader,
		api:      api,
		manhwaID: cfg.ManhwaID,
		log:      log.With().Str("component", "page").Int64("manhwa_id", cfg.ManhwaID).Logger(),
	}
}

// RecordView bumps the view counter in the background. The outcome is only logged.
// The returned channel closes when the request has finished.
func (p *DetailPage) RecordView(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := p.api.SetView(ctx, p.manhwaID)
		if err != nil {
			p.log.Warn().Err(err).Msg("set view failed")
			return
		}
		p.log.Debug().Bool("status", resp.Status).Str("message", resp.Message).Msg("set view")
	}()
	return done
}

// ActivateTab mirrors a tab switch on the page
func (p *DetailPage) ActivateTab(ctx context.Context, tab string) error {
	return p.Thread.OnTabActivated(ctx, tab)
}

// React applies a reaction click
func (p *DetailPage) React(ctx context.Context, id models.CommentID, r models.Reaction) (reaction.Outcome, error) {
	return p.Reactions.ApplyReaction(ctx, id, r)
}

// Close releases timers held by the page
func (p *DetailPage) Close() {
	p.Notifications.Close()
}
