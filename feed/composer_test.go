package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	posts []models.Post
	err   error

	windowCalls  int
	channelCalls int
	lastStart    time.Time
	lastEnd      time.Time
}

func (f *fakeSource) ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error) {
	f.windowCalls++
	f.lastStart, f.lastEnd = start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeSource) ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error) {
	f.channelCalls++
	if f.err != nil {
		return nil, f.err
	}
	set := map[string]bool{}
	for _, id := range channelIds {
		set[id] = true
	}
	var out []models.Post
	for _, p := range f.posts {
		if set[p.ChannelId] {
			out = append(out, p)
		}
	}
	return out, nil
}

func post(id, channel string, likes int64, age time.Duration) models.Post {
	return models.Post{
		Id:         id,
		ChannelId:  channel,
		LikesCount: likes,
		CreatedAt:  now.Add(-age),
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Id)
	}
	return out
}

func newComposer(src Source) *Composer {
	return NewComposer(src, WithClock(func() time.Time { return now }))
}

func TestTrendingOrdersByLikes(t *testing.T) {
	src := &fakeSource{posts: []models.Post{
		post("a", "c1", 10, time.Hour),
		post("b", "c1", 50, time.Hour),
		post("c", "c2", 5, time.Hour),
		post("d", "c2", 30, time.Hour),
	}}

	got := newComposer(src).Trending(context.Background(), "", 2)
	assert.Equal(t, []string{"b", "d"}, ids(got))
	assert.Equal(t, now, src.lastEnd)
	assert.Equal(t, now.Add(-DefaultWindow), src.lastStart)
}

func TestTrendingDefaultLimit(t *testing.T) {
	var posts []models.Post
	for i := 0; i < 10; i++ {
		posts = append(posts, post(fmt.Sprint(i), "c1", int64(i), time.Minute))
	}
	got := newComposer(&fakeSource{posts: posts}).Trending(context.Background(), "", 0)
	assert.Equal(t, []string{"9", "8", "7", "6"}, ids(got))
}

func TestTrendingDropsPostsOutsideWindow(t *testing.T) {
	src := &fakeSource{posts: []models.Post{
		post("old", "c1", 500, 8*24*time.Hour),
		post("new", "c1", 1, time.Hour),
		post("future", "c1", 900, -time.Hour),
	}}
	got := newComposer(src).Trending(context.Background(), "", 4)
	assert.Equal(t, []string{"new"}, ids(got))
}

func TestTrendingStableTies(t *testing.T) {
	src := &fakeSource{posts: []models.Post{
		post("first", "c1", 7, time.Hour),
		post("second", "c2", 7, 2*time.Hour),
		post("third", "c3", 7, 3*time.Hour),
	}}
	got := newComposer(src).Trending(context.Background(), "", 4)
	assert.Equal(t, []string{"first", "second", "third"}, ids(got))
}

func TestTrendingCustomWindow(t *testing.T) {
	src := &fakeSource{posts: []models.Post{
		post("a", "c1", 3, 2*time.Hour),
		post("b", "c1", 1, 30*time.Minute),
	}}
	c := NewComposer(src, WithClock(func() time.Time { return now }), WithWindow(time.Hour))
	assert.Equal(t, []string{"b"}, ids(c.Trending(context.Background(), "", 4)))
}

func TestTrendingSourceErrorIsEmpty(t *testing.T) {
	got := newComposer(&fakeSource{err: errors.New("permission denied")}).Trending(context.Background(), "", 4)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestForYouNoChannels(t *testing.T) {
	src := &fakeSource{posts: []models.Post{post("a", "c1", 1, time.Hour)}}
	c := newComposer(src)

	assert.Empty(t, c.ForYou(context.Background(), "u1", nil, 6))
	assert.Empty(t, c.ForYou(context.Background(), "u1", []string{}, 100))
	assert.Equal(t, 0, src.channelCalls)
}

func TestForYouProportionalSampling(t *testing.T) {
	var posts []models.Post
	// c1 is prolific, c2 posts rarely
	for i := 0; i < 10; i++ {
		posts = append(posts, post(fmt.Sprintf("c1-%d", i), "c1", 0, time.Duration(i)*time.Hour))
	}
	posts = append(posts, post("c2-0", "c2", 0, 5*time.Hour))
	posts = append(posts, post("c3-0", "c3", 0, 3*time.Hour), post("c3-1", "c3", 0, time.Hour))

	got := newComposer(&fakeSource{posts: posts}).ForYou(context.Background(), "u1", []string{"c2", "c1", "c3"}, 6)

	// ceil(6/3) = 2 per channel, joined order, newest first within channel
	assert.Equal(t, []string{"c2-0", "c1-0", "c1-1", "c3-1", "c3-0"}, ids(got))
}

func TestForYouTruncatesToLimit(t *testing.T) {
	var posts []models.Post
	for _, ch := range []string{"a", "b", "c", "d"} {
		for i := 0; i < 3; i++ {
			posts = append(posts, post(fmt.Sprintf("%s%d", ch, i), ch, 0, time.Duration(i)*time.Minute))
		}
	}
	got := newComposer(&fakeSource{posts: posts}).ForYou(context.Background(), "u1", []string{"a", "b", "c", "d"}, 6)

	// ceil(6/4) = 2 per channel gives 8, cut at 6
	assert.Equal(t, []string{"a0", "a1", "b0", "b1", "c0", "c1"}, ids(got))
}

func TestForYouDuplicateChannels(t *testing.T) {
	posts := []models.Post{
		post("a0", "a", 0, time.Minute),
		post("a1", "a", 0, 2*time.Minute),
		post("a2", "a", 0, 3*time.Minute),
	}
	got := newComposer(&fakeSource{posts: posts}).ForYou(context.Background(), "u1", []string{"a", "a", ""}, 2)
	assert.Equal(t, []string{"a0", "a1"}, ids(got))
}

func TestForYouSourceErrorIsEmpty(t *testing.T) {
	got := newComposer(&fakeSource{err: errors.New("unreachable")}).ForYou(context.Background(), "u1", []string{"a"}, 6)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterChannel(t *testing.T) {
	posts := []models.Post{post("a", "c1", 0, 0), post("b", "c2", 0, 0), post("c", "c1", 0, 0)}

	assert.Equal(t, []string{"a", "c"}, ids(FilterChannel(posts, "c1")))
	assert.Equal(t, posts, FilterChannel(posts, ""))
	assert.Empty(t, FilterChannel(posts, "c9"))
}

func TestHome(t *testing.T) {
	src := &fakeSource{posts: []models.Post{
		post("a", "c1", 3, time.Hour),
		post("b", "c2", 9, 2*time.Hour),
		post("c", "c1", 1, 3*time.Hour),
	}}
	c := newComposer(src)

	home := c.Home(context.Background(), "u1", []string{"c1", "c2"}, HomeOptions{ChannelId: "c1"})
	assert.Equal(t, []string{"b", "a", "c"}, ids(home.Trending))
	assert.Equal(t, []string{"a", "c"}, ids(home.ForYou))
	assert.False(t, home.ExploreChannels)
	assert.Equal(t, 1, src.channelCalls)

	home = c.Home(context.Background(), "u2", nil, HomeOptions{})
	assert.Empty(t, home.ForYou)
	assert.True(t, home.ExploreChannels)
}

func TestComposerProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	channels := []string{"c0", "c1", "c2", "c3", "c4"}

	for round := 0; round < 200; round++ {
		var posts []models.Post
		for i := 0; i < rng.Intn(40); i++ {
			age := time.Duration(rng.Intn(10*24)) * time.Hour
			posts = append(posts, post(fmt.Sprint(i), channels[rng.Intn(len(channels))], int64(rng.Intn(100)), age))
		}
		c := newComposer(&fakeSource{posts: posts})

		limit := 1 + rng.Intn(8)
		trending := c.Trending(context.Background(), "", limit)
		assert.LessOrEqual(t, len(trending), limit)
		for i, p := range trending {
			assert.False(t, p.CreatedAt.Before(now.Add(-DefaultWindow)))
			if i > 0 {
				assert.GreaterOrEqual(t, trending[i-1].LikesCount, p.LikesCount)
			}
		}

		joined := channels[:1+rng.Intn(len(channels))]
		forYou := c.ForYou(context.Background(), "u", joined, limit)
		assert.LessOrEqual(t, len(forYou), limit)
		perChannel := map[string]int{}
		for _, p := range forYou {
			perChannel[p.ChannelId]++
		}
		maxPer := (limit + len(joined) - 1) / len(joined)
		for ch, n := range perChannel {
			assert.Contains(t, joined, ch)
			assert.LessOrEqual(t, n, maxPer)
		}
	}
}
