package models

type AppConfig struct {
	Server       ServerConfig            `yaml:"server"`
	RateLimiting RateLimitingConfig      `yaml:"rate_limiting"`
	Redis        RedisConfig             `yaml:"redis_config"`
	Registry     RegistryConfig          `yaml:"service_registry"`
	Services     map[string][]string     `yaml:"services"` // static instances, used when etcd is off
	RouteOptions map[string]*RouteOption `yaml:"route_options"`
	CORS         CORSConfig              `yaml:"cors"`
	// flatten or nested
	CommentNesting string `yaml:"comment_nesting"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	PublicKey string `yaml:"public_key"` // base64 ed25519, JWT_PUBLIC_KEY wins when set
	MaxBody   string `yaml:"max_body"`   // e.g. "1 MB"
	// per call deadline towards the services
	CallTimeout string `yaml:"call_timeout"`
	LogFile     string `yaml:"log_file"`
}

type RateLimitingConfig struct {
	Addrs    []string        `yaml:"addrs"`
	PoolSize int             `yaml:"pool_size"`
	Rules    map[string]Rule `yaml:"rules"` // "ip" and "user"
}

type Rule struct {
	Limit      int `yaml:"limit"`       // bucket size
	RefillRate int `yaml:"refill_rate"` // tokens per second
}

type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	PoolSize int      `yaml:"pool_size"`
}

type RegistryConfig struct {
	Endpoints string `yaml:"endpoints"`
}

type RouteOption struct {
	RequireAuth      bool   `yaml:"require_auth"`
	RequireRole      string `yaml:"require_role"`
	RateLimitEnabled bool   `yaml:"rate_limit_enabled"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAge         int      `yaml:"max_age"`
}
