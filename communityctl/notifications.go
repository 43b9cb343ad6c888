package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	unreadOnly bool
	notifLimit int
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List your notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		list, err := newClient().Notifications(ctx, unreadOnly, notifLimit)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), list, func(w io.Writer) {
			notice(w, list.Notice)
			fmt.Fprintf(w, "%d unread\n", list.Unread)
			for _, n := range list.Notifications {
				dot := " "
				if !n.Read {
					dot = "•"
				}
				fmt.Fprintf(w, "%s %s %s %s %s\n", dot, n.CreatedAt.Format("2006-01-02 15:04"), n.Id, n.ActorId, n.Message)
			}
		})
	},
}

var markReadCmd = &cobra.Command{
	Use:   "mark-read [NOTIFICATION_ID]",
	Short: "Mark one notification, or all of them, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		c := newClient()
		if len(args) == 1 {
			return c.MarkRead(ctx, args[0])
		}
		n, err := c.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %d notifications as read\n", n)
		return nil
	},
}

func init() {
	notificationsCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")
	notificationsCmd.Flags().IntVar(&notifLimit, "limit", 0, "Maximum number to show (default 20)")
	rootCmd.AddCommand(notificationsCmd, markReadCmd)
}
