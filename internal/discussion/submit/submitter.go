package submit

import (
	"context"
	"fmt"
	"strings"

	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/view"

	"github.com/rs/zerolog"
)

// Poster sends a new comment to the server
type Poster interface {
	CreateComment(ctx context.Context, manhwaID int64, request *client.CreateCommentRequest) (*models.Comment, error)
}

// Document is the part of the rendered page the submitter writes to
type Document interface {
	PrependComment(c *models.Comment, r models.CommentReactions) error
	Draft() string
	ClearDraft()
	ShowReplyPreview(p view.ReplyPreview)
	HideReplyPreview()
}

// Seeder registers the initial reaction state of a synthesized comment
type Seeder interface {
	Seed(id models.CommentID, r models.CommentReactions)
}

type Notifier interface {
	Success(text string)
	Errors(fields map[string][]string)
	ClearErrors()
}

// Invalidator drops copies of the thread that were cached before a change
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	ManhwaID int64
	// RenderReplies synthesizes replies locally like top-level comments instead of
	// waiting for the next thread fetch
	RenderReplies bool
}

type Submitter struct {
	poster   Poster
	doc      Document
	session  *models.SessionState
	seeder   Seeder
	notifier Notifier
	stale    Invalidator
	opts     Options
	log      zerolog.Logger
}

func NewSubmitter(poster Poster, doc Document, session *models.SessionState, seeder Seeder, notifier Notifier, opts Options, log zerolog.Logger) *Submitter {
	return &Submitter{
		poster:   poster,
		doc:      doc,
		session:  session,
		seeder:   seeder,
		notifier: notifier,
		opts:     opts,
		log:      log.With().Str("component", "submit").Int64("manhwa_id", opts.ManhwaID).Logger(),
	}
}

// InvalidateOnChange registers inv to be called after every accepted comment
func (s *Submitter) InvalidateOnChange(inv Invalidator) {
	s.stale = inv
}

// SubmitComment posts text as a top-level comment (parentID nil) or as a reply.
// Validation is left to the server.
func (s *Submitter) SubmitComment(ctx context.Context, text string, parentID *models.CommentID) (*models.Comment, error) {
	request := &client.CreateCommentRequest{
		Text:   strings.TrimSpace(text),
		Parent: parentID,
	}

	comment, err := s.poster.CreateComment(ctx, s.opts.ManhwaID, request)
	if err != nil {
		s.log.Warn().Err(err).Bool("reply", parentID != nil).Msg("comment rejected")
		s.notifier.Errors(client.ErrorFields(err))
		return nil, fmt.Errorf("submit comment: %w", err)
	}

	if s.stale != nil {
		s.stale.Invalidate(ctx)
	}

	// the server may omit the parent in its echo
	if comment.ParentID == nil && parentID != nil {
		p := *parentID
		comment.ParentID = &p
	}

	message := "comment successfully added."
	if parentID == nil || s.opts.RenderReplies {
		reactions := models.NewCommentReactions()
		if err := s.doc.PrependComment(comment, reactions); err != nil {
			// the comment exists server side, the next thread fetch will show it
			s.log.Error().Err(err).Int64("comment_id", int64(comment.ID)).Msg("render comment")
		}
		s.seeder.Seed(comment.ID, reactions)
	}
	if parentID != nil {
		message = "your comment successfully replied."
	}

	s.doc.ClearDraft()
	s.CancelReply()
	s.notifier.ClearErrors()
	s.notifier.Success(message)

	s.log.Info().
		Int64("comment_id", int64(comment.ID)).
		Bool("reply", parentID != nil).
		Msg("comment added")
	return comment, nil
}

// SubmitDraft submits the current input against the active reply target
func (s *Submitter) SubmitDraft(ctx context.Context) (*models.Comment, error) {
	return s.SubmitComment(ctx, s.doc.Draft(), s.session.ActiveReplyTarget())
}

// BeginReply targets id and shows a preview of the comment being answered
func (s *Submitter) BeginReply(id models.CommentID, previewText, previewAuthor string) {
	s.session.SetReplyTarget(id)
	s.doc.ShowReplyPreview(view.ReplyPreview{
		CommentID: id,
		Author:    previewAuthor,
		Text:      view.PreviewText(previewText),
	})
}

// CancelReply goes back to posting a top-level comment
func (s *Submitter) CancelReply() {
	s.session.ClearReplyTarget()
	s.doc.HideReplyPreview()
}
