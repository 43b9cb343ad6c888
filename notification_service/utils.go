package main

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/notification_service/models"
)

func LoadConfig() (svc.Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return svc.Config{}, err
	}
	config := svc.Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerHost:     os.Getenv("SERVER_HOST"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		ServerHttpPort: os.Getenv("SERVER_HTTP_PORT"),
		EtcdEndpoints:  os.Getenv("ETCD_ENDPOINTS"),
		HostName:       os.Getenv("HOSTNAME"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	if config.DatabaseURL == "" || config.ServerPort == "" {
		return svc.Config{}, errors.New("failed intialization of config: DATABASE_URL and SERVER_PORT are required")
	}
	return config, nil
}

// LoadKafkaConfig returns ok=false when no brokers are configured. The
// service then only serves reads.
func LoadKafkaConfig() (svc.KafkaConfig, bool) {
	servers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if servers == "" {
		return svc.KafkaConfig{}, false
	}
	config := svc.KafkaConfig{
		BootStrapServers: servers,
		GroupID:          envOr("KAFKA_GROUP_ID", "notification_service"),
		OffsetReset:      envOr("KAFKA_OFFSET_RESET", "earliest"),
		FetchMinBytes:    envOr("KAFKA_FETCH_MIN_BYTES", "1"),
		Topics:           []string{models.TopicCommentCreated, models.TopicLikeCreated},
	}
	if topics := os.Getenv("KAFKA_TOPICS"); topics != "" {
		config.Topics = strings.Split(topics, ",")
	}
	return config, true
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func InitLogger(path string) {
	if path == "" {
		path = "notification_service.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(f)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
