package main

import (
	"crypto/ed25519"
	"time"
)

// User is the stored account. The password hash never leaves the service.
type User struct {
	Id           string
	Email        string
	PasswordHash string
	FullName     string
	Profession   string
	AvatarUrl    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTKey   ed25519.PrivateKey
	TokenTTL time.Duration

	// accounts registered with these emails get the admin role
	AdminEmails []string

	ServerHost     string
	ServerPort     string
	ServerHttpPort string
	EtcdEndpoints  string
	HostName       string
	LogFile        string
}
