package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/roweshkalloe/qualogy-ai-connect/notification_service/store"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal("Failed To Load The Configuration:", err.Error())
	}
	InitLogger(config.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPgStore(ctx, config.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err.Error())
	}

	server := NewNotificationServer(st, config)
	if kc, ok := LoadKafkaConfig(); ok {
		server.writer, err = NewNotificationWriter(server.ctx, kc, st)
		if err != nil {
			log.Fatal("Failed to start kafka consumer: ", err.Error())
		}
		server.writer.Start()
	} else {
		log.Println("KAFKA_BOOTSTRAP_SERVERS not set, notifications will not be produced")
	}

	go func() {
		log.Println(server.StartHealthServer())
	}()
	go func() {
		if err := server.start(); err != nil {
			log.Println("Error in gRPC server: ", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	server.close()
}
