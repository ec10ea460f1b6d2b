package command

import (
	"fmt"
	"os"

	"manhwahub/internal/discussion/thread"

	"github.com/spf13/cobra"
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Comment thread commands",
}

var showThreadCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the comment thread of a manhwa",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, closePage, err := openPage()
		if err != nil {
			return err
		}
		defer closePage()

		if countView, _ := cmd.Flags().GetBool("count-view"); countView {
			defer func() { <-page.RecordView(cmd.Context()) }()
		}

		if err := page.ActivateTab(cmd.Context(), thread.CommentsTab); err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}

		fmt.Printf("Comments for manhwa %d:\n\n", manhwaID)
		renderThread(os.Stdout, page)
		return nil
	},
}

func init() {
	threadCmd.AddCommand(showThreadCmd)
	showThreadCmd.Flags().Bool("count-view", false, "also record a view of the detail page")
}
