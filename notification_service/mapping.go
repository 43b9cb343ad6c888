package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const snippetLen = 80

// notificationsFor maps one event to the notifications it causes. Ids are
// derived from the event so a redelivered message maps to the same rows.
func notificationsFor(evt models.Event) []models.Notification {
	at := time.UnixMilli(evt.CreatedAt).UTC()
	var out []models.Notification
	add := func(to string, typ models.NotificationType, msg string) {
		if to == "" || to == evt.ActorId {
			return
		}
		key := fmt.Sprintf("%s|%s|%s|%s|%d|%s", evt.Topic, evt.PostId, evt.CommentId, evt.ActorId, evt.CreatedAt, to)
		out = append(out, models.Notification{
			Id:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
			UserId:    to,
			ActorId:   evt.ActorId,
			Type:      typ,
			PostId:    evt.PostId,
			CommentId: evt.CommentId,
			Message:   msg,
			CreatedAt: at,
		})
	}

	switch evt.Topic {
	case models.TopicLikeCreated:
		add(evt.PostAuthorId, models.NotifyLike, "liked your post")
	case models.TopicCommentCreated:
		if evt.ParentId != "" {
			add(evt.ParentAuthorId, models.NotifyReply, "replied to your comment: "+snippet(evt.Content))
		}
		// the post author already heard about it when they wrote the parent
		if evt.ParentId == "" || evt.PostAuthorId != evt.ParentAuthorId {
			add(evt.PostAuthorId, models.NotifyComment, "commented on your post: "+snippet(evt.Content))
		}
	}
	return out
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen-1]) + "…"
}
