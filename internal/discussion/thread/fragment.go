package thread

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"manhwahub/internal/discussion/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// ParsedComment is one comment as found in a server-rendered fragment
type ParsedComment struct {
	ID        models.CommentID
	ParentID  *models.CommentID
	Author    string
	Text      string
	Timestamp string
	Reactions models.CommentReactions
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("button")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).Globally()
	p.AllowDataAttributes()
	return p
}

// Sanitize strips scripts, handlers and anything else the thread markup does not need
func Sanitize(html string) string {
	return policy.Sanitize(html)
}

// ParseFragment extracts every comment with its reaction markers and counts
func ParseFragment(html string) ([]ParsedComment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse thread fragment: %w", err)
	}

	var (
		parsed   []ParsedComment
		parseErr error
	)
	doc.Find(".comment-box[data-comment-id]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		raw, _ := s.Attr("data-comment-id")
		id, err := models.ParseCommentID(strings.TrimSpace(raw))
		if err != nil {
			parseErr = fmt.Errorf("comment %d has invalid id %q: %w", i, raw, err)
			return false
		}

		c := ParsedComment{ID: id}
		if rawParent, ok := s.Attr("data-parent-id"); ok {
			if parent, err := models.ParseCommentID(strings.TrimSpace(rawParent)); err == nil {
				c.ParentID = &parent
			}
		}

		content := s.ChildrenFiltered(".comment-content").First()
		c.Author = strings.TrimSpace(content.ChildrenFiltered("h3").First().Text())
		c.Text = textWithBreaks(content.ChildrenFiltered("p").First())
		c.Timestamp = strings.TrimSpace(content.Find(".comment-bottom > span").First().Text())

		c.Reactions = models.NewCommentReactions()
		if doc.Find(".comment-like-" + id.String()).HasClass("active") {
			c.Reactions.State = models.StateLiked
		} else if doc.Find(".comment-dislike-" + id.String()).HasClass("active") {
			c.Reactions.State = models.StateDisliked
		}
		c.Reactions.Counts = models.ReactionCounts{
			Likes:    count(doc.Find("#likeCount-" + id.String())),
			Dislikes: count(doc.Find("#dislikeCount-" + id.String())),
		}

		parsed = append(parsed, c)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return parsed, nil
}

func count(s *goquery.Selection) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.First().Text()))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func textWithBreaks(s *goquery.Selection) string {
	s = s.Clone()
	s.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(s.Text())
}
