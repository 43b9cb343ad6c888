package models

import "time"

type RedisConfig struct {
	// one address is a single node, more are treated as a cluster
	ClusterAddr []string
	Password    string
	TrendingTTL time.Duration
}

type ServerConfig struct {
	ServerHost     string
	ServerPort     string
	ServerHTTPPort string
	PostService    string
	UserService    string
	EtcdEndpoints  string
	HostName       string
	LogFile        string

	TrendingWindow time.Duration
	CallTimeout    time.Duration
}
