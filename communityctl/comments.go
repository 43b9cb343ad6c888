package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/client"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
)

var commentsCmd = &cobra.Command{
	Use:   "comments POST_ID",
	Short: "Show the comment thread of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		tree, msg, err := newClient().Comments(ctx, args[0])
		if err != nil {
			return err
		}
		if tree, err = rendered(tree); err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), tree, func(w io.Writer) {
			notice(w, msg)
			printTree(w, tree)
		})
	},
}

func printTree(w io.Writer, tree *commentTree.Tree) {
	fmt.Fprintf(w, "%d comments\n", tree.Count)
	tree.Walk(func(n *commentTree.Node, depth int) {
		fmt.Fprintf(w, "%s- [%s] %s: %s\n", strings.Repeat("  ", depth), n.Id, n.UserId, n.Content)
	})
}

var commentCmd = &cobra.Command{
	Use:   "comment POST_ID TEXT",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args[0], "", args[1])
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply POST_ID COMMENT_ID TEXT",
	Short: "Reply to a comment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args[0], args[1], args[2])
	},
}

func submit(cmd *cobra.Command, postId, parentId, text string) error {
	ctx, cancel := newContext()
	defer cancel()
	c := newClient()
	tree, _, err := c.Comments(ctx, postId)
	if err != nil {
		return err
	}
	thread := client.NewThread(c, postId, tree)
	if parentId == "" {
		thread.Compose()
	} else if err := thread.Reply(parentId); err != nil {
		return fmt.Errorf("comment %s: %w", parentId, err)
	}
	comment, err := thread.Submit(ctx, text)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), comment, func(w io.Writer) {
		fmt.Fprintf(w, "Posted %s, the post now has %d comments\n", comment.Id, thread.Count())
	})
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete-comment POST_ID COMMENT_ID",
	Short: "Delete one of your comments and the replies under it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		c := newClient()
		tree, _, err := c.Comments(ctx, args[0])
		if err != nil {
			return err
		}
		var removed int
		thread := client.NewThread(c, args[0], tree, client.OnCountChange(func(d int) { removed -= d }))
		if err := thread.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d comments, %d left\n", removed, thread.Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentsCmd, commentCmd, replyCmd, deleteCommentCmd)
}
