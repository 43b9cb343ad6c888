package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	path := os.Getenv("GATEWAY_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	config, err := LoadAppConfig(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	InitLogger(config.Server.LogFile)

	s, err := parseSettings(config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var lb *LoadBalancer
	if config.Registry.Endpoints != "" {
		lb, err = NewLoadBalancer(config.Registry.Endpoints)
		if err != nil {
			log.Fatalf("Failed to initialize load balancer: %v", err)
		}
		log.Println("Load balancer follows etcd at ", config.Registry.Endpoints)
	} else {
		lb = NewStaticLoadBalancer(config.Services)
		log.Printf("Load balancer initialized with %d static services", len(config.Services))
	}
	defer lb.close()

	var lim limiter
	if len(config.RateLimiting.Addrs) > 0 {
		rl, err := NewRateLimiter(config.RateLimiting)
		if err != nil {
			log.Fatalf("Failed to initialize rate limiter: %v", err)
		}
		defer rl.close()
		lim = rl
		log.Println("Rate limiter initialized")
	}

	var rev revoker
	if len(config.Redis.Addrs) > 0 {
		rr := NewRedisRevoker(config.Redis)
		defer rr.close()
		rev = rr
	} else {
		log.Println("Warning: no redis_config, logout cannot revoke tokens")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewServer(NewHandler(lb, lim, rev, s), config)
	go func() {
		if err := server.start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println("Server failed: ", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.close(shutdownCtx)
}
