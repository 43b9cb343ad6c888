package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/roweshkalloe/qualogy-ai-connect/feed_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

func LoadConfig() (models.ServerConfig, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return models.ServerConfig{}, err
	}
	config := models.ServerConfig{
		ServerPort:     os.Getenv("SERVER_PORT"),
		ServerHost:     os.Getenv("SERVER_HOST"),
		ServerHTTPPort: os.Getenv("SERVER_HTTP_PORT"),
		PostService:    os.Getenv("POST_SERVICE"),
		UserService:    os.Getenv("USER_SERVICE"),
		EtcdEndpoints:  os.Getenv("ETCD_ENDPOINTS"),
		HostName:       os.Getenv("HOSTNAME"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	config.TrendingWindow, _ = time.ParseDuration(os.Getenv("TRENDING_WINDOW"))
	config.CallTimeout, _ = time.ParseDuration(os.Getenv("CALL_TIMEOUT"))
	return config, nil
}

func LoadRedisConfig() (models.RedisConfig, error) {
	config := models.RedisConfig{
		ClusterAddr: strings.Split(os.Getenv("CLUSTER_ADDR"), ","),
		Password:    os.Getenv("CACHE_PASSWORD"),
	}
	config.TrendingTTL, _ = time.ParseDuration(os.Getenv("TRENDING_TTL"))
	return config, nil
}

// serviceTarget prefers a configured address and falls back to the first
// instance registered in etcd.
func serviceTarget(ctx context.Context, configured, etcdEndpoints, service string) (string, error) {
	if configured != "" || etcdEndpoints == "" {
		return configured, nil
	}
	client, err := registry.NewClient(etcdEndpoints)
	if err != nil {
		return "", err
	}
	defer client.Close()
	addrs, err := registry.Resolve(ctx, client, service)
	if err != nil {
		return "", err
	}
	return addrs[0], nil
}

func InitLogger(path string) {
	if path == "" {
		path = "feed_service.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(f)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
