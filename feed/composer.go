// Package feed composes the post lists a viewer sees on the home page:
// a globally ranked "trending" list and a per-viewer "for you" list built
// from the channels the viewer joined.
//
// Composition never fails. A source error is logged and the affected list
// comes back empty, so a broken backend renders as "nothing to show".
package feed

import (
	"cmp"
	"context"
	"log"
	"slices"
	"time"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const (
	DefaultTrendingLimit = 4
	DefaultForYouLimit   = 6
	DefaultWindow        = 7 * 24 * time.Hour
)

// Source is the read side of the persistence collaborator the composer needs.
// Both calls return posts newest first.
type Source interface {
	ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error)
	ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error)
}

type Composer struct {
	source Source
	window time.Duration
	now    func() time.Time
}

type Option func(*Composer)

// WithWindow sets the trailing window trending posts are drawn from.
func WithWindow(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

func NewComposer(source Source, opts ...Option) *Composer {
	c := &Composer{
		source: source,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trending returns at most limit posts created inside the trailing window,
// ordered by like count (highest first). Equal like counts keep the order
// the source returned them in.
func (c *Composer) Trending(ctx context.Context, viewerId string, limit int) []models.Post {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	end := c.now()
	start := end.Add(-c.window)

	posts, err := c.source.ListPostsByWindow(ctx, viewerId, start, end)
	if err != nil {
		log.Printf("Error in Loading trending posts [%v, %v]: %v", start.Format(time.RFC3339), end.Format(time.RFC3339), err.Error())
		return []models.Post{}
	}

	ranked := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.Before(start) || p.CreatedAt.After(end) {
			continue
		}
		ranked = append(ranked, p)
	}
	slices.SortStableFunc(ranked, func(a, b models.Post) int {
		return cmp.Compare(b.LikesCount, a.LikesCount)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ForYou samples the joined channels proportionally: every channel gives at
// most ceil(limit/n) of its newest posts, channels are concatenated in the
// order they were joined and the result is cut at limit.
func (c *Composer) ForYou(ctx context.Context, viewerId string, joinedChannelIds []string, limit int) []models.Post {
	if limit <= 0 {
		limit = DefaultForYouLimit
	}
	channels := uniqueChannels(joinedChannelIds)
	if len(channels) == 0 {
		return []models.Post{}
	}

	posts, err := c.source.ListPostsByChannels(ctx, viewerId, channels)
	if err != nil {
		log.Printf("Error in Loading posts of %d joined channels for user{%v}: %v", len(channels), viewerId, err.Error())
		return []models.Post{}
	}

	perChannel := (limit + len(channels) - 1) / len(channels)
	byChannel := make(map[string][]models.Post, len(channels))
	for _, p := range posts {
		byChannel[p.ChannelId] = append(byChannel[p.ChannelId], p)
	}

	result := make([]models.Post, 0, limit)
	for _, id := range channels {
		list := byChannel[id]
		slices.SortStableFunc(list, func(a, b models.Post) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		if len(list) > perChannel {
			list = list[:perChannel]
		}
		result = append(result, list...)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// FilterChannel narrows an already fetched list to one channel.
// An empty channel id means no filter.
func FilterChannel(posts []models.Post, channelId string) []models.Post {
	if channelId == "" {
		return posts
	}
	filtered := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.ChannelId == channelId {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

type HomeOptions struct {
	TrendingLimit int
	ForYouLimit   int
	ChannelId     string // optional filter on the for you list
}

type Home struct {
	Trending []models.Post `json:"trending"`
	ForYou   []models.Post `json:"for_you"`

	// set when the viewer has not joined any channel yet
	ExploreChannels bool `json:"explore_channels"`
}

func (c *Composer) Home(ctx context.Context, viewerId string, joinedChannelIds []string, opts HomeOptions) Home {
	forYou := c.ForYou(ctx, viewerId, joinedChannelIds, opts.ForYouLimit)
	return Home{
		Trending:        c.Trending(ctx, viewerId, opts.TrendingLimit),
		ForYou:          FilterChannel(forYou, opts.ChannelId),
		ExploreChannels: len(uniqueChannels(joinedChannelIds)) == 0,
	}
}

func uniqueChannels(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
