package command

import (
	"fmt"
	"io"
	"strings"

	"manhwahub/internal/discussion"
	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/thread"

	"github.com/charmbracelet/lipgloss"
)

var (
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(0, 1)
	replyIndent = lipgloss.NewStyle().MarginLeft(4)
)

// renderComment draws one comment card with its reaction line
func renderComment(c thread.ParsedComment, r models.CommentReactions) string {
	header := authorStyle.Render(c.Author) + " " + metaStyle.Render(fmt.Sprintf("#%d %s", c.ID, c.Timestamp))

	like := fmt.Sprintf("lk %d", r.Counts.Likes)
	dislike := fmt.Sprintf("dlk %d", r.Counts.Dislikes)
	if r.State.Active(models.Like) {
		like = activeStyle.Render(like)
	}
	if r.State.Active(models.Dislike) {
		dislike = activeStyle.Render(dislike)
	}

	card := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, c.Text, metaStyle.Render("[")+like+" "+dislike+metaStyle.Render("]")))
	if c.ParentID != nil {
		return replyIndent.Render(card)
	}
	return card
}

// renderThread prints the loaded thread using the page's current reaction state
func renderThread(w io.Writer, page *discussion.DetailPage) {
	comments := page.Thread.Comments()
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}

	cards := make([]string, 0, len(comments))
	for _, c := range comments {
		r, ok := page.Reactions.Snapshot(c.ID)
		if !ok {
			r = c.Reactions
		}
		cards = append(cards, renderComment(c, r))
	}
	fmt.Fprintln(w, strings.Join(cards, "\n"))
}

// renderNotifications prints whatever the notification center currently shows
func renderNotifications(w io.Writer, page *discussion.DetailPage) {
	page.Notifications.Render(w)
}
