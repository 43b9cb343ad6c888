package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var channelInput models.Channel

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		list, err := newClient().Channels(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), list, func(w io.Writer) {
			notice(w, list.Notice)
			for _, ch := range list.Channels {
				joined := " "
				if ch.Joined {
					joined = "*"
				}
				fmt.Fprintf(w, "%s %-24s %s  %d members, %d posts\n", joined, ch.Slug, ch.Id, ch.MemberCount, ch.PostCount)
			}
		})
	},
}

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Show or manage a channel",
}

var channelShowCmd = &cobra.Command{
	Use:   "show SLUG",
	Short: "Show a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		ch, err := newClient().Channel(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), ch, func(w io.Writer) {
			fmt.Fprintf(w, "%s (%s)\n%s\n%d members, %d posts, joined: %v\n",
				ch.Name, ch.Slug, ch.Description, ch.MemberCount, ch.PostCount, ch.Joined)
		})
	},
}

var channelCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a channel (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		ch, err := newClient().CreateChannel(ctx, channelInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", ch.Slug, ch.Id)
		return nil
	},
}

var channelUpdateCmd = &cobra.Command{
	Use:   "update CHANNEL_ID",
	Short: "Update a channel (admin or channel admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		in := channelInput
		in.Id = args[0]
		ch, err := newClient().UpdateChannel(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", ch.Slug)
		return nil
	},
}

var channelDeleteCmd = &cobra.Command{
	Use:   "delete CHANNEL_ID",
	Short: "Delete a channel (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		return newClient().DeleteChannel(ctx, args[0])
	},
}

func membershipCmd(join bool) *cobra.Command {
	use, short := "join", "Join a channel"
	if !join {
		use, short = "leave", "Leave a channel"
	}
	return &cobra.Command{
		Use:   use + " CHANNEL_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := newContext()
			defer cancel()
			c := newClient()
			var err error
			if join {
				_, err = c.JoinChannel(ctx, args[0])
			} else {
				_, err = c.LeaveChannel(ctx, args[0])
			}
			return err
		},
	}
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role USER_ID ROLE",
	Short: "Grant a role to a user (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", args[1])
		}
		ctx, cancel := newContext()
		defer cancel()
		roles, err := newClient().GrantRole(ctx, args[0], role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Roles:", roleNames(roles))
		return nil
	},
}

func roleNames(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func init() {
	for _, cmd := range []*cobra.Command{channelCreateCmd, channelUpdateCmd} {
		cmd.Flags().StringVar(&channelInput.Name, "name", "", "Channel name")
		cmd.Flags().StringVar(&channelInput.Slug, "slug", "", "Url slug (default: derived from the name)")
		cmd.Flags().StringVar(&channelInput.Description, "description", "", "Description")
		cmd.Flags().StringVar(&channelInput.Icon, "icon", "", "Icon name")
		cmd.Flags().StringVar(&channelInput.Color, "color", "", "Color class")
	}
	channelCreateCmd.MarkFlagRequired("name")
	channelCmd.AddCommand(channelShowCmd, channelCreateCmd, channelUpdateCmd, channelDeleteCmd)
	rootCmd.AddCommand(channelsCmd, channelCmd, membershipCmd(true), membershipCmd(false), grantRoleCmd)
}
