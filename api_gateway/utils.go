package main

import (
	"crypto/ed25519"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
	"github.com/roweshkalloe/qualogy-ai-connect/auth"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
)

const (
	defaultMaxBody     = 1 << 20
	defaultCallTimeout = 3 * time.Second
)

func LoadAppConfig(path string) (*models.AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config models.AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if key := os.Getenv("JWT_PUBLIC_KEY"); key != "" {
		config.Server.PublicKey = key
	}
	if eps := os.Getenv("ETCD_ENDPOINTS"); eps != "" {
		config.Registry.Endpoints = eps
	}
	return &config, nil
}

// settings are the parsed, ready to use parts of the configuration.
type settings struct {
	publicKey   ed25519.PublicKey
	maxBody     int64
	callTimeout time.Duration
	nesting     commentTree.Policy
}

func parseSettings(config *models.AppConfig) (settings, error) {
	var s settings
	var err error
	if s.publicKey, err = auth.DecodePublicKey(config.Server.PublicKey); err != nil {
		return s, fmt.Errorf("public key: %w", err)
	}
	s.maxBody = defaultMaxBody
	if config.Server.MaxBody != "" {
		n, err := humanize.ParseBytes(config.Server.MaxBody)
		if err != nil {
			return s, fmt.Errorf("max_body: %w", err)
		}
		s.maxBody = int64(n)
	}
	s.callTimeout = defaultCallTimeout
	if config.Server.CallTimeout != "" {
		if s.callTimeout, err = time.ParseDuration(config.Server.CallTimeout); err != nil {
			return s, fmt.Errorf("call_timeout: %w", err)
		}
	}
	if s.nesting, err = commentTree.ParsePolicy(config.CommentNesting); err != nil {
		return s, err
	}
	return s, nil
}

func InitLogger(path string) {
	if path == "" {
		path = "api_gateway.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(f)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
