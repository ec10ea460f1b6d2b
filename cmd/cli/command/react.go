package command

import (
	"errors"
	"fmt"
	"os"

	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/thread"

	"github.com/spf13/cobra"
)

var reactCmd = &cobra.Command{
	Use:   "react [comment-id] [like|dislike]",
	Short: "Like or dislike a comment, repeating a reaction removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		commentID, err := models.ParseCommentID(args[0])
		if err != nil {
			return fmt.Errorf("invalid comment ID: %w", err)
		}
		reaction, err := models.ParseReaction(args[1])
		if err != nil {
			return err
		}

		page, closePage, err := openPage()
		if err != nil {
			return err
		}
		defer closePage()

		// current markers come from the thread
		if err := page.ActivateTab(cmd.Context(), thread.CommentsTab); err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
		c, ok := page.Thread.Find(commentID)
		if !ok {
			return fmt.Errorf("comment %d is not part of manhwa %d", commentID, manhwaID)
		}

		outcome, err := page.React(cmd.Context(), commentID, reaction)
		renderNotifications(os.Stdout, page)
		if err != nil {
			return errors.New("reaction was not applied")
		}

		fmt.Println(renderComment(c, outcome.Final))
		return nil
	},
}
