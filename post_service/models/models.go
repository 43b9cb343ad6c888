package models

import "time"

type Config struct {
	// Primary (write) database
	DBHost     string
	DBPort     string
	DBUser     string
	DBName     string
	DBPassword string

	// Replica (read) database
	DBReplicaHost     string
	DBReplicaPort     string
	DBReplicaUser     string
	DBReplicaName     string
	DBReplicaPassword string

	CacheAddr      string
	CachePassword  string
	ServerHost     string
	ServerPort     string
	ServerHttpPort string

	EtcdEndpoints string
	HostName      string
	LogFile       string
}

type KafkaConfig struct {
	BootStrapServers string
	Acks             string
	Idempotence      string
	CompressionType  string
	LingerMs         string
	BatchSize        int // outbox rows per relay round
	PollInterval     time.Duration
}

// CachedPost is the part of a post stored under post:<id>. Counters live in
// their own hash so they can be bumped without rewriting the post.
type CachedPost struct {
	Id        string    `json:"id"`
	ChannelId string    `json:"channel_id"`
	UserId    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageUrl  string    `json:"image_url"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type CachedCounter struct {
	Id       string
	Likes    int64
	Comments int64
}

// OutboxRow is one pending event in the outbox table.
type OutboxRow struct {
	Id       int64
	Topic    string
	KafkaKey string
	Payload  []byte
}
