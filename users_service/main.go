package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal("Failed To Load The Configuration:", err.Error())
	}
	InitLogger(config.LogFile)

	db, err := InitDB(config)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err.Error())
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewUserServer(NewUserRepo(db), config)
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
