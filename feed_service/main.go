package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	cachedrepo "github.com/roweshkalloe/qualogy-ai-connect/feed_service/cachedRepo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appConfig, err := LoadConfig()
	if err != nil {
		log.Fatal("Error in Loading Service Config: ", err.Error())
	}
	InitLogger(appConfig.LogFile)
	cacheConfig, err := LoadRedisConfig()
	if err != nil {
		log.Fatal("Error in Loading Redis Config: ", err.Error())
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cache, err := cachedrepo.NewRedisRepo(startCtx, cacheConfig)
	if err != nil {
		// trending is recomposed on every call until redis is back
		log.Println("Error in Loading Redis: ", err.Error())
	}

	postTarget, err := serviceTarget(startCtx, appConfig.PostService, appConfig.EtcdEndpoints, "post_service")
	if err != nil {
		log.Fatal("Failed to find PostService: ", err.Error())
	}
	pc, err := NewPostClient(postTarget)
	if err != nil {
		log.Fatal("Failed to intiallize connection with PostService", err.Error())
	}
	userTarget, err := serviceTarget(startCtx, appConfig.UserService, appConfig.EtcdEndpoints, "users_service")
	if err != nil {
		log.Fatal("Failed to find UserService: ", err.Error())
	}
	uc, err := NewUserClient(userTarget)
	if err != nil {
		log.Fatal("Failed to intiallize connection with UserService", err.Error())
	}

	service := NewFeedService(appConfig, cache, pc, uc)
	service.closers = append(service.closers, pc.Close, uc.Close)

	go func() {
		log.Println(service.StartHealthServer())
	}()
	go func() {
		if err := service.Start(); err != nil {
			log.Println("Error in gRPC server: ", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	service.close()
}
