package models

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TopicPostCreated    = "posts.created"
	TopicCommentCreated = "comments.created"
	TopicLikeCreated    = "likes.created"
)

var ErrUnknownTopic = errors.New("unknown event topic")

// Event is what the post service writes to its outbox and relays to kafka.
// Author fields are resolved at write time so consumers never call back.
type Event struct {
	Topic          string
	PostId         string
	PostAuthorId   string
	ChannelId      string
	CommentId      string
	ParentId       string
	ParentAuthorId string
	ActorId        string
	Content        string
	CreatedAt      int64 // unix millis
}

// Key is used as the kafka message key so events of one post stay ordered.
func (e Event) Key() string {
	return e.PostId
}

func (e Event) Marshal() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"topic":            e.Topic,
		"post_id":          e.PostId,
		"post_author_id":   e.PostAuthorId,
		"channel_id":       e.ChannelId,
		"comment_id":       e.CommentId,
		"parent_id":        e.ParentId,
		"parent_author_id": e.ParentAuthorId,
		"actor_id":         e.ActorId,
		"content":          e.Content,
		"created_at":       e.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func UnmarshalEvent(data []byte) (Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	f := s.GetFields()
	e := Event{
		Topic:          f["topic"].GetStringValue(),
		PostId:         f["post_id"].GetStringValue(),
		PostAuthorId:   f["post_author_id"].GetStringValue(),
		ChannelId:      f["channel_id"].GetStringValue(),
		CommentId:      f["comment_id"].GetStringValue(),
		ParentId:       f["parent_id"].GetStringValue(),
		ParentAuthorId: f["parent_author_id"].GetStringValue(),
		ActorId:        f["actor_id"].GetStringValue(),
		Content:        f["content"].GetStringValue(),
		CreatedAt:      int64(f["created_at"].GetNumberValue()),
	}
	switch e.Topic {
	case TopicPostCreated, TopicCommentCreated, TopicLikeCreated:
		return e, nil
	}
	return e, fmt.Errorf("%w: %q", ErrUnknownTopic, e.Topic)
}
