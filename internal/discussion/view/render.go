package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"manhwahub/internal/discussion/models"
)

// PreviewLimit is how many characters of the original comment the reply preview shows
const PreviewLimit = 50

// commentTemplate is shared with the dev server so that a locally synthesized comment
// and a server-rendered one are byte-identical.
var commentTemplate = template.Must(template.New("comment").Funcs(template.FuncMap{
	"linebreaks": Linebreaks,
	"activeIf": func(on bool) string {
		if on {
			return " active"
		}
		return ""
	},
}).Parse(`<div class="comment-box" id="comment-{{.ID}}" data-comment-id="{{.ID}}"{{if .ParentID}} data-parent-id="{{.ParentID}}"{{end}}>
<div class="comment-img"></div>
<div class="comment-content">
<h3>{{.Author}}</h3>
<p>{{linebreaks .Text}}</p>
<div class="comment-bottom">
<span>{{.Timestamp}}</span>
<div class="comment-reactions">
<button class="comment-like-{{.ID}}{{activeIf .Liked}}" data-comment-id="{{.ID}}" data-reaction="lk">lk:<span id="likeCount-{{.ID}}">{{.Likes}}</span></button>
<button class="comment-dislike-{{.ID}}{{activeIf .Disliked}}" data-comment-id="{{.ID}}" data-reaction="dlk">dlk:<span id="dislikeCount-{{.ID}}">{{.Dislikes}}</span></button>
</div>
</div>
</div>
</div>`))

type commentData struct {
	ID        string
	ParentID  string
	Author    string
	Text      string
	Timestamp string
	Liked     bool
	Disliked  bool
	Likes     int
	Dislikes  int
}

// RenderComment produces the markup of one comment with its reaction controls
func RenderComment(c *models.Comment, r models.CommentReactions) (template.HTML, error) {
	data := commentData{
		ID:        c.ID.String(),
		Author:    c.AuthorName,
		Text:      c.Text,
		Timestamp: c.CreatedOrModifiedAt,
		Liked:     r.State == models.StateLiked,
		Disliked:  r.State == models.StateDisliked,
		Likes:     r.Counts.Likes,
		Dislikes:  r.Counts.Dislikes,
	}
	if c.ParentID != nil {
		data.ParentID = c.ParentID.String()
	}

	var buf bytes.Buffer
	if err := commentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render comment %d: %w", c.ID, err)
	}
	return template.HTML(buf.String()), nil
}

// Linebreaks escapes text and turns every newline into a <br>
func Linebreaks(text string) template.HTML {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	escaped := template.HTMLEscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// PreviewText cuts text to PreviewLimit characters, adding an ellipsis when it had to cut
func PreviewText(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLimit]) + "..."
}
