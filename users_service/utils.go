package main

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"

	"github.com/roweshkalloe/qualogy-ai-connect/auth"
)

func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	config := Config{
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		ServerHost:     os.Getenv("SERVER_HOST"),
		ServerHttpPort: os.Getenv("SERVER_HTTP_PORT"),
		EtcdEndpoints:  os.Getenv("ETCD_ENDPOINTS"),
		HostName:       os.Getenv("HOSTNAME"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	key, err := auth.DecodePrivateKey(os.Getenv("JWT_PRIVATE_KEY"))
	if err != nil {
		return Config{}, errors.New("failed intialization of config: " + err.Error())
	}
	config.JWTKey = key
	config.TokenTTL, _ = time.ParseDuration(os.Getenv("TOKEN_TTL"))
	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			config.AdminEmails = append(config.AdminEmails, e)
		}
	}
	return config, nil
}

func InitLogger(path string) {
	if path == "" {
		path = "users_service.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(f)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func check(user User, password string) error {
	if len(user.Email) == 0 {
		return errors.New("email cannot be empty")
	}
	if !govalidator.IsEmail(user.Email) {
		return errors.New("invalid email format")
	}
	// bcrypt ignores everything after 72 bytes
	if !govalidator.ByteLength(password, "8", "72") {
		return errors.New("password must be between 8 and 72 bytes")
	}
	return checkProfile(user)
}

func checkProfile(user User) error {
	if len(user.FullName) < 2 {
		return errors.New("full name must be at least 2 characters")
	}
	if !govalidator.RuneLength(user.FullName, "2", "100") || !govalidator.RuneLength(user.Profession, "0", "100") {
		return errors.New("name and profession are limited to 100 characters")
	}
	if user.AvatarUrl != "" && !govalidator.IsURL(user.AvatarUrl) {
		return errors.New("avatar url is not a valid url")
	}
	return nil
}
