package reaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/models"

	"github.com/rs/zerolog"
)

// ErrReactionPending is returned when a comment already has a reaction request in flight
var ErrReactionPending = errors.New("reaction request still pending for this comment")

// Action is how a click was resolved against the viewer's previous reaction
type Action string

const (
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

// Reactor sends the toggle to the server
type Reactor interface {
	React(ctx context.Context, commentID models.CommentID, reaction models.Reaction) (*client.ReactionResult, error)
}

// Renderer reflects the state of one comment on screen
type Renderer interface {
	ReflectReactions(id models.CommentID, r models.CommentReactions)
}

// Notifier surfaces outcomes to the user
type Notifier interface {
	Success(text string)
	Errors(fields map[string][]string)
	ClearErrors()
}

// Invalidator drops copies of the thread that were cached before a change
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Outcome describes one ApplyReaction call
type Outcome struct {
	Action     Action
	Before     models.CommentReactions
	Optimistic models.CommentReactions
	Final      models.CommentReactions
}

// Controller owns the viewer's reaction state for every comment on the page.
// At most one request per comment is in flight, further clicks are rejected until it resolves.
type Controller struct {
	mu       sync.Mutex
	states   map[models.CommentID]models.CommentReactions
	pending  map[models.CommentID]bool
	reactor  Reactor
	renderer Renderer
	notifier Notifier
	stale    Invalidator
	log      zerolog.Logger
}

func NewController(reactor Reactor, renderer Renderer, notifier Notifier, log zerolog.Logger) *Controller {
	return &Controller{
		states:   make(map[models.CommentID]models.CommentReactions),
		pending:  make(map[models.CommentID]bool),
		reactor:  reactor,
		renderer: renderer,
		notifier: notifier,
		log:      log.With().Str("component", "reaction").Logger(),
	}
}

// InvalidateOnChange registers inv to be called after every accepted reaction
func (c *Controller) InvalidateOnChange(inv Invalidator) {
	c.mu.Lock()
	c.stale = inv
	c.mu.Unlock()
}

// Resolve picks the action for a click and returns the state it leads to
func Resolve(before models.CommentReactions, requested models.Reaction) (Action, models.CommentReactions) {
	after := before
	last, hasReaction := before.State.Reaction()

	switch {
	case hasReaction && last == requested:
		after.Counts = before.Counts.Add(requested, -1)
		after.State = models.StateNone
		return ActionDelete, after
	case hasReaction:
		after.Counts = before.Counts.Add(requested, 1).Add(requested.Opposite(), -1)
		after.State = requested.State()
		return ActionChange, after
	default:
		after.Counts = before.Counts.Add(requested, 1)
		after.State = requested.State()
		return ActionAdd, after
	}
}

// Seed sets the known state of a comment, e.g. from the server-rendered thread.
// Comments with a request in flight are left alone.
func (c *Controller) Seed(id models.CommentID, r models.CommentReactions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[id] {
		return
	}
	r.Counts = r.Counts.Clamp()
	if r.State == "" {
		r.State = models.StateNone
	}
	c.states[id] = r
	c.renderer.ReflectReactions(id, r)
}

// Snapshot returns the current state of a comment
func (c *Controller) Snapshot(id models.CommentID) (models.CommentReactions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.states[id]
	return r, ok
}

// Pending reports whether a request for id is in flight
func (c *Controller) Pending(id models.CommentID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

// ApplyReaction updates the comment optimistically, sends the toggle and then either
// takes the server's counts or restores the state from before the click.
func (c *Controller) ApplyReaction(ctx context.Context, id models.CommentID, requested models.Reaction) (Outcome, error) {
	c.mu.Lock()
	if c.pending[id] {
		c.mu.Unlock()
		c.log.Debug().Int64("comment_id", int64(id)).Msg("click ignored, request in flight")
		return Outcome{}, ErrReactionPending
	}

	before, ok := c.states[id]
	if !ok {
		before = models.NewCommentReactions()
	}
	action, optimistic := Resolve(before, requested)
	c.states[id] = optimistic
	c.pending[id] = true
	c.renderer.ReflectReactions(id, optimistic)
	c.mu.Unlock()

	outcome := Outcome{Action: action, Before: before, Optimistic: optimistic}

	result, err := c.reactor.React(ctx, id, requested)

	c.mu.Lock()
	delete(c.pending, id)
	if err != nil {
		outcome.Final = before
	} else {
		// the marker stays as set optimistically, only counts are authoritative
		outcome.Final = models.CommentReactions{State: optimistic.State, Counts: result.Counts.Clamp()}
	}
	c.states[id] = outcome.Final
	c.renderer.ReflectReactions(id, outcome.Final)
	stale := c.stale
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).
			Int64("comment_id", int64(id)).
			Str("reaction", string(requested)).
			Str("action", string(action)).
			Msg("reaction rolled back")
		c.notifier.Errors(client.ErrorFields(err))
		return outcome, fmt.Errorf("%s %s on comment %d: %w", action, requested, id, err)
	}

	c.log.Info().
		Int64("comment_id", int64(id)).
		Str("reaction", string(requested)).
		Str("action", string(action)).
		Int("likes", outcome.Final.Counts.Likes).
		Int("dislikes", outcome.Final.Counts.Dislikes).
		Msg("reaction applied")

	if stale != nil {
		stale.Invalidate(ctx)
	}

	message := result.Message
	if message == "" {
		message = defaultMessage(action)
	}
	c.notifier.ClearErrors()
	c.notifier.Success(message)
	return outcome, nil
}

func defaultMessage(action Action) string {
	switch action {
	case ActionDelete:
		return "reaction removed"
	case ActionChange:
		return "your reaction changed"
	default:
		return "your reaction added"
	}
}
