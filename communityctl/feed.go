package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/client"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var (
	feedTrending int
	feedForYou   int
	feedChannel  string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the home feed: trending and for you",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext()
		defer cancel()
		home, err := newClient().Home(ctx, client.HomeOptions{
			TrendingLimit: feedTrending, ForYouLimit: feedForYou, ChannelId: feedChannel,
		})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), home, func(w io.Writer) {
			notice(w, home.Notice)
			fmt.Fprintln(w, "Trending")
			printPosts(w, home.Trending)
			fmt.Fprintln(w, "\nFor you")
			if home.ExploreChannels {
				fmt.Fprintln(w, "  You have not joined any channel yet. Try `communityctl channels`.")
				return
			}
			printPosts(w, home.ForYou)
		})
	},
}

func printPosts(w io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "  (nothing here)")
	}
	for _, p := range posts {
		mark := " "
		if p.Liked {
			mark = "♥"
		}
		author := p.UserId
		if p.Author != nil {
			author = p.Author.FullName
		}
		fmt.Fprintf(w, "%s %s  %q by %s  [%d likes, %d comments]\n",
			mark, p.Id, p.Title, author, p.LikesCount, p.CommentsCount)
	}
}

func init() {
	feedCmd.Flags().IntVar(&feedTrending, "trending", 0, "Number of trending posts (default 4)")
	feedCmd.Flags().IntVar(&feedForYou, "for-you", 0, "Number of for you posts (default 6)")
	feedCmd.Flags().StringVar(&feedChannel, "channel", "", "Only show for you posts of this channel id")
	rootCmd.AddCommand(feedCmd)
}
