package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
)

func LoadConfig() (svc.Config, error) {
	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return svc.Config{}, err
	}
	config := svc.Config{
		// Primary DB
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		// Replica DB
		DBReplicaHost:     os.Getenv("DB_REPLICA_HOST"),
		DBReplicaPort:     os.Getenv("DB_REPLICA_PORT"),
		DBReplicaUser:     os.Getenv("DB_REPLICA_USER"),
		DBReplicaPassword: os.Getenv("DB_REPLICA_PASSWORD"),
		DBReplicaName:     os.Getenv("DB_REPLICA_NAME"),

		ServerPort:     os.Getenv("SERVER_PORT"),
		ServerHost:     os.Getenv("SERVER_HOST"),
		ServerHttpPort: os.Getenv("SERVER_HTTP_PORT"),
		CachePassword:  os.Getenv("CACHE_PASSWORD"),
		CacheAddr:      os.Getenv("CACHE_ADDR"),

		EtcdEndpoints: os.Getenv("ETCD_ENDPOINTS"),
		HostName:      os.Getenv("HOSTNAME"),
		LogFile:       os.Getenv("LOG_FILE"),
	}
	if config.DBHost == "" || config.ServerPort == "" {
		return svc.Config{}, fmt.Errorf("DB_HOST and SERVER_PORT must be set")
	}
	// without a replica all reads go to the primary
	if config.DBReplicaHost == "" {
		config.DBReplicaHost, config.DBReplicaPort = config.DBHost, config.DBPort
		config.DBReplicaUser, config.DBReplicaPassword = config.DBUser, config.DBPassword
		config.DBReplicaName = config.DBName
	}
	return config, nil
}

func LoadKafkaConfig() svc.KafkaConfig {
	batch, _ := strconv.Atoi(os.Getenv("OUTBOX_BATCH_SIZE"))
	interval, _ := time.ParseDuration(os.Getenv("OUTBOX_POLL_INTERVAL"))
	return svc.KafkaConfig{
		BootStrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		Acks:             envOr("KAFKA_ACKS", "all"),
		Idempotence:      envOr("KAFKA_IDEMPOTENCE", "true"),
		CompressionType:  envOr("KAFKA_COMPRESSION", "lz4"),
		LingerMs:         envOr("KAFKA_LINGER_MS", "10"),
		BatchSize:        batch,
		PollInterval:     interval,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func InitLogger(path string) {
	if path == "" {
		path = "post_service.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(f)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func dsn(host, port, user, password, name string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, name)
}

func InitDBConnections(config svc.Config) (*sql.DB, *sql.DB, error) {
	// Primary connection (for writes)
	primaryDB, err := sql.Open("postgres",
		dsn(config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName))
	if err != nil {
		log.Println("Failed to connect to primary DB:", err.Error())
		return nil, nil, err
	}

	// Replica connection (for reads)
	replicaDB, err := sql.Open("postgres",
		dsn(config.DBReplicaHost, config.DBReplicaPort, config.DBReplicaUser, config.DBReplicaPassword, config.DBReplicaName))
	if err != nil {
		log.Println("Failed to connect to replica DB:", err.Error())
		primaryDB.Close()
		return nil, nil, err
	}

	primaryDB.SetMaxOpenConns(15)
	primaryDB.SetMaxIdleConns(5)

	replicaDB.SetMaxOpenConns(25)
	replicaDB.SetMaxIdleConns(10)

	return primaryDB, replicaDB, nil
}
