package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/roweshkalloe/qualogy-ai-connect/post_service/cachedRepo"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config file: ", err.Error())
	}
	InitLogger(config.LogFile)

	primaryDB, replicaDB, err := InitDBConnections(config)
	if err != nil {
		log.Fatal("Failed to initialize database connections: ", err.Error())
	}
	if err := postRepo.ApplyMigrations(primaryDB, config.DBName); err != nil {
		log.Fatal("Failed to migrate database: ", err.Error())
	}

	repo := postRepo.NewPostgresRepo(primaryDB, replicaDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	redisClient, err := cachedRepo.NewRedisClient(pingCtx, config.CacheAddr, config.CachePassword)
	cancel()
	if err != nil {
		// reads fall through to the database while redis is away
		log.Println("Error in Loading Redis: ", err.Error())
	}
	cache := cachedRepo.NewRedisRepo(repo, redisClient)

	postService := NewPostService(repo, cache, config)

	kafkaConfig := LoadKafkaConfig()
	if kafkaConfig.BootStrapServers != "" {
		producer, err := NewKafkaProducer(kafkaConfig)
		if err != nil {
			log.Fatal("Failed to create kafka producer: ", err.Error())
		}
		postService.relay = newOutboxRelay(repo, producer, kafkaConfig)
		postService.relay.Start(postService.ctx)
	} else {
		log.Println("KAFKA_BOOTSTRAP_SERVERS not set, outbox rows stay pending")
	}

	go func() {
		log.Println(postService.StartHealthServer())
	}()
	go func() {
		if err := postService.start(); err != nil {
			log.Println("Error in gRPC server: ", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down post_service")
	postService.close()
}
