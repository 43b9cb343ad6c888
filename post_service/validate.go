package main

import (
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const (
	maxTitle = 200
	maxTags  = 10
)

func validatePost(p models.Post) error {
	if !required(p.UserId, p.ChannelId) {
		return errors.New("user id and channel id are required")
	}
	if p.Title == "" {
		return errors.New("post title is empty")
	}
	if p.Content == "" {
		return errors.New("post body is empty")
	}
	if len([]rune(p.Title)) > maxTitle {
		return errors.New("post title is too long")
	}
	if p.ImageUrl != "" && !govalidator.IsURL(p.ImageUrl) {
		return errors.New("image url is not a valid url")
	}
	if len(p.Tags) > maxTags {
		return errors.New("too many tags")
	}
	return nil
}

// normalizeTags trims, lowercases and dedupes tags, dropping a leading '#'.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func normalizeChannel(ch models.Channel) models.Channel {
	ch.Name = strings.TrimSpace(ch.Name)
	ch.Description = strings.TrimSpace(ch.Description)
	ch.Slug = strings.TrimSpace(ch.Slug)
	if ch.Slug == "" {
		ch.Slug = slugify(ch.Name)
	}
	return ch
}

// slugify keeps ascii letters and digits, everything else collapses into '-'.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func validateChannel(ch models.Channel) error {
	if ch.Name == "" {
		return errors.New("channel name is empty")
	}
	if !govalidator.Matches(ch.Slug, `^[a-z0-9]+(-[a-z0-9]+)*$`) {
		return errors.New("channel slug must be lowercase words joined by '-'")
	}
	if ch.Color != "" && !govalidator.Matches(ch.Color, `^[a-z0-9/:\-]+$`) {
		return errors.New("channel color is not a style class")
	}
	if ch.Icon != "" && !govalidator.IsAlphanumeric(ch.Icon) {
		return errors.New("channel icon must be an icon name")
	}
	return nil
}
