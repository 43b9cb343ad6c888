package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
)

var (
	loginEmail    string
	loginPassword string
	regName       string
	regProfession string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the token for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginPassword == "" {
			loginPassword = os.Getenv("COMMUNITY_PASSWORD")
		}
		ctx, cancel := newContext()
		defer cancel()
		c := newClient()
		res, err := c.Login(ctx, loginEmail, loginPassword)
		if err != nil {
			return err
		}
		if err := saveToken(res.Token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		return render(cmd.OutOrStdout(), res.User, func(w io.Writer) {
			fmt.Fprintf(w, "Logged in as %s (%s)\n", res.User.FullName, strings.Join(roleNames(res.User.Roles), ", "))
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		if err := newClient().Logout(ctx); err != nil {
			return err
		}
		return saveToken("")
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		id, err := newClient().Register(ctx, pb.RegisterRequest{
			Email: loginEmail, Password: loginPassword, FullName: regName, Profession: regProfession,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registered", id)
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your profile and stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		c := newClient()
		me, err := c.Me(ctx)
		if err != nil {
			return err
		}
		stats, err := c.UserStats(ctx, me.Id)
		if err != nil {
			return err
		}
		out := struct {
			User  any `json:"user"`
			Stats any `json:"stats"`
		}{me, stats}
		return render(cmd.OutOrStdout(), out, func(w io.Writer) {
			fmt.Fprintf(w, "%s <%s>\n%s\n", me.FullName, me.Email, me.Profession)
			fmt.Fprintf(w, "%d posts, %d likes received, %d channels\n", stats.Posts, stats.LikesReceived, stats.JoinedChannels)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVar(&loginEmail, "email", "", "Account e-mail")
		cmd.Flags().StringVar(&loginPassword, "password", "", "Password (default: $COMMUNITY_PASSWORD)")
		cmd.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&regName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&regProfession, "profession", "", "Profession")
	registerCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, meCmd)
}
