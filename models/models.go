package models

import "time"

type Post struct {
	Id            string    `json:"id"`
	ChannelId     string    `json:"channel_id"`
	UserId        string    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ImageUrl      string    `json:"image_url,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`

	// viewer dependent, filled only when a viewer is known
	Liked     bool `json:"is_liked"`
	Favorited bool `json:"is_favorited"`

	Author *Author `json:"author,omitempty"`
}

// Author is the public part of a user shown next to posts.
type Author struct {
	Id         string `json:"id"`
	FullName   string `json:"full_name"`
	Profession string `json:"profession,omitempty"`
	AvatarUrl  string `json:"avatar_url,omitempty"`
}

type Comment struct {
	Id        string    `json:"id"`
	PostId    string    `json:"post_id"`
	UserId    string    `json:"user_id"`
	Content   string    `json:"content"`
	ParentId  string    `json:"parent_id,omitempty"` // empty for root comments
	CreatedAt time.Time `json:"created_at"`
}

func (c Comment) IsRoot() bool {
	return c.ParentId == ""
}

type Channel struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	MemberCount int64     `json:"member_count"`
	PostCount   int64     `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Joined bool     `json:"is_joined"`
	Admins []string `json:"admins,omitempty"`
}

type MarkerKind string

const (
	KindLike     MarkerKind = "like"
	KindFavorite MarkerKind = "favorite"
)

// Marker is a like or favorite. Its existence is the state.
type Marker struct {
	Kind   MarkerKind `json:"kind"`
	PostId string     `json:"post_id"`
	UserId string     `json:"user_id"`
}

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleChannelAdmin Role = "channel_admin"
	RoleUser         Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleChannelAdmin || r == RoleUser
}

type User struct {
	Id         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Profession string    `json:"profession"`
	AvatarUrl  string    `json:"avatar_url"`
	Roles      []Role    `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u User) HasRole(r Role) bool {
	for _, role := range u.Roles {
		if role == r {
			return true
		}
	}
	return false
}

type UserStats struct {
	Posts          int64 `json:"posts"`
	LikesReceived  int64 `json:"likes"`
	JoinedChannels int64 `json:"following"`
}

type NotificationType string

const (
	NotifyLike    NotificationType = "like"
	NotifyComment NotificationType = "comment"
	NotifyReply   NotificationType = "reply"
	NotifySystem  NotificationType = "system"
)

type Notification struct {
	Id        string           `json:"id"`
	UserId    string           `json:"user_id"`
	ActorId   string           `json:"actor_id"`
	Type      NotificationType `json:"type"`
	PostId    string           `json:"post_id,omitempty"`
	CommentId string           `json:"comment_id,omitempty"`
	Message   string           `json:"message"`
	Read      bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
