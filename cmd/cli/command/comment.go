package command

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/thread"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long:  `Post comments and replies on a manhwa detail page`,
}

var postCommentCmd = &cobra.Command{
	Use:   "post [text...]",
	Short: "Post a comment on a manhwa",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, closePage, err := openPage()
		if err != nil {
			return err
		}
		defer closePage()

		page.Document.SetDraft(strings.Join(args, " "))
		comment, err := page.Comments.SubmitDraft(cmd.Context())
		renderNotifications(os.Stdout, page)
		if err != nil {
			return errors.New("comment was not posted")
		}

		fmt.Printf("Comment ID: %d\n", comment.ID)
		fmt.Printf("Posted by: %s\n", comment.AuthorName)
		return nil
	},
}

var replyCommentCmd = &cobra.Command{
	Use:   "reply [comment-id] [text...]",
	Short: "Reply to a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID, err := models.ParseCommentID(args[0])
		if err != nil {
			return fmt.Errorf("invalid comment ID: %w", err)
		}

		page, closePage, err := openPage()
		if err != nil {
			return err
		}
		defer closePage()

		// the thread gives the preview of the comment being answered
		if err := page.ActivateTab(cmd.Context(), thread.CommentsTab); err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
		parent, ok := page.Thread.Find(parentID)
		if !ok {
			return fmt.Errorf("comment %d is not part of manhwa %d", parentID, manhwaID)
		}

		page.Comments.BeginReply(parent.ID, parent.Text, parent.Author)
		if preview := page.Document.ReplyPreview(); preview != nil {
			fmt.Println(metaStyle.Render(fmt.Sprintf("replying to %s: %s", preview.Author, preview.Text)))
		}

		page.Document.SetDraft(strings.Join(args[1:], " "))
		reply, err := page.Comments.SubmitDraft(cmd.Context())
		renderNotifications(os.Stdout, page)
		if err != nil {
			return errors.New("reply was not posted")
		}

		fmt.Printf("Reply ID: %d\n", reply.ID)
		return nil
	},
}

func init() {
	commentCmd.AddCommand(postCommentCmd)
	commentCmd.AddCommand(replyCommentCmd)
}
