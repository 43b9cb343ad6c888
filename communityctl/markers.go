package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/client"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type markerKind struct {
	name   string
	on     func(models.Post) bool
	count  func(models.Post) int64
	toggle func(*client.Client, context.Context, string, *client.Marker) (client.TxState, error)
}

var (
	likeKind = markerKind{
		name:   "like",
		on:     func(p models.Post) bool { return p.Liked },
		count:  func(p models.Post) int64 { return p.LikesCount },
		toggle: (*client.Client).ToggleLike,
	}
	favoriteKind = markerKind{
		name:   "favorite",
		on:     func(p models.Post) bool { return p.Favorited },
		count:  func(p models.Post) int64 { return -1 },
		toggle: (*client.Client).ToggleFavorite,
	}
)

// markerCmd sets the marker of a post to want, toggling only when needed.
func markerCmd(use string, kind markerKind, want bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " POST_ID",
		Short: fmt.Sprintf("Set the %s of a post", kind.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := newContext()
			defer cancel()
			c := newClient()
			post, err := c.Post(ctx, args[0])
			if err != nil {
				return err
			}
			if kind.on(post) == want {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to do, %s is already %v\n", kind.name, want)
				return nil
			}
			m := client.NewMarker(kind.on(post), max(kind.count(post), 0))
			state, err := kind.toggle(c, ctx, post.Id, m)
			if err != nil {
				return fmt.Errorf("%s %s: %w", use, state, err)
			}
			on, count := m.State()
			if kind.count(post) < 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", kind.name, on)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v (%d)\n", kind.name, on, count)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		markerCmd("like", likeKind, true),
		markerCmd("unlike", likeKind, false),
		markerCmd("favorite", favoriteKind, true),
		markerCmd("unfavorite", favoriteKind, false),
	)
}
