package models

type KafkaConfig struct {
	BootStrapServers string
	GroupID          string
	OffsetReset      string
	FetchMinBytes    string
	Topics           []string
}

type Config struct {
	DatabaseURL    string
	ServerHost     string
	ServerPort     string
	ServerHttpPort string
	EtcdEndpoints  string
	HostName       string
	LogFile        string
}
