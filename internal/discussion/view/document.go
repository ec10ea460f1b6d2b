package view

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"sync"

	"manhwahub/internal/discussion/models"

	"github.com/PuerkitoBio/goquery"
)

// RenderedComment is a comment synthesized on the client
type RenderedComment struct {
	Comment   models.Comment
	Reactions models.CommentReactions
	HTML      template.HTML
}

// ReplyPreview is shown above the input while replying
type ReplyPreview struct {
	CommentID models.CommentID
	Author    string
	Text      string
}

// Document is the rendered side of one detail page. It never decides state,
// it only reflects what the controllers push into it.
type Document struct {
	mu           sync.RWMutex
	threadHTML   string
	comments     []RenderedComment // newest first
	reactions    map[models.CommentID]models.CommentReactions
	draft        string
	replyPreview *ReplyPreview
}

func NewDocument() *Document {
	return &Document{reactions: make(map[models.CommentID]models.CommentReactions)}
}

// SetThreadHTML replaces the thread container's content. Comments synthesized
// before the load are dropped, the fragment already carries them.
func (d *Document) SetThreadHTML(html string) {
	d.mu.Lock()
	d.threadHTML = html
	d.comments = nil
	d.mu.Unlock()
}

func (d *Document) ThreadHTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threadHTML
}

// PrependComment renders c and puts it at the top of the list
func (d *Document) PrependComment(c *models.Comment, r models.CommentReactions) error {
	html, err := RenderComment(c, r)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.comments = append([]RenderedComment{{Comment: *c, Reactions: r, HTML: html}}, d.comments...)
	d.reactions[c.ID] = r
	return nil
}

// Comments returns the locally synthesized comments, newest first
func (d *Document) Comments() []RenderedComment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]RenderedComment(nil), d.comments...)
}

// ReflectReactions updates the markers and counts shown for one comment
func (d *Document) ReflectReactions(id models.CommentID, r models.CommentReactions) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reactions[id] = r
	for i := range d.comments {
		if d.comments[i].Comment.ID != id {
			continue
		}
		html, err := RenderComment(&d.comments[i].Comment, r)
		if err != nil {
			continue
		}
		d.comments[i].Reactions = r
		d.comments[i].HTML = html
	}
}

// Reactions returns what is displayed for id
func (d *Document) Reactions(id models.CommentID) (models.CommentReactions, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.reactions[id]
	return r, ok
}

// ActiveButtons counts the reaction buttons carrying the active marker for id
func (d *Document) ActiveButtons(id models.CommentID) int {
	r, ok := d.Reactions(id)
	if !ok {
		return 0
	}
	n := 0
	if r.State.Active(models.Like) {
		n++
	}
	if r.State.Active(models.Dislike) {
		n++
	}
	return n
}

func (d *Document) SetDraft(text string) {
	d.mu.Lock()
	d.draft = text
	d.mu.Unlock()
}

func (d *Document) Draft() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.draft
}

func (d *Document) ClearDraft() {
	d.SetDraft("")
}

func (d *Document) ShowReplyPreview(p ReplyPreview) {
	d.mu.Lock()
	d.replyPreview = &p
	d.mu.Unlock()
}

func (d *Document) HideReplyPreview() {
	d.mu.Lock()
	d.replyPreview = nil
	d.mu.Unlock()
}

// ReplyPreview returns the visible preview, nil when hidden
func (d *Document) ReplyPreview() *ReplyPreview {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.replyPreview == nil {
		return nil
	}
	p := *d.replyPreview
	return &p
}

// HTML renders the full comments tab: synthesized comments first, then the thread
// fragment with reaction markers and counts patched to the reflected state.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(`<div id="comments-list">`)
	for _, c := range d.comments {
		sb.WriteString(string(c.HTML))
	}

	if d.threadHTML != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.threadHTML))
		if err != nil {
			return "", fmt.Errorf("parse thread fragment: %w", err)
		}
		for id, r := range d.reactions {
			patchReactions(doc, id, r)
		}
		html, err := doc.Find("body").Html()
		if err != nil {
			return "", err
		}
		sb.WriteString(html)
	}
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

func patchReactions(doc *goquery.Document, id models.CommentID, r models.CommentReactions) {
	like := doc.Find(".comment-like-" + id.String())
	dislike := doc.Find(".comment-dislike-" + id.String())

	like.RemoveClass("active")
	dislike.RemoveClass("active")
	if r.State == models.StateLiked {
		like.AddClass("active")
	} else if r.State == models.StateDisliked {
		dislike.AddClass("active")
	}
	normalizeClass(like)
	normalizeClass(dislike)

	doc.Find("#likeCount-" + id.String()).SetText(strconv.Itoa(r.Counts.Likes))
	doc.Find("#dislikeCount-" + id.String()).SetText(strconv.Itoa(r.Counts.Dislikes))
}

// normalizeClass collapses the whitespace goquery leaves behind when toggling classes
func normalizeClass(s *goquery.Selection) {
	s.Each(func(_ int, el *goquery.Selection) {
		if class, ok := el.Attr("class"); ok {
			el.SetAttr("class", strings.Join(strings.Fields(class), " "))
		}
	})
}
