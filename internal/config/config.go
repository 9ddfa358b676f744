package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Blockchain BlockchainConfig
	LLM        LLMConfig
	UseMocks   bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration for the pin index
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return "file:chat_ledger.db?cache=shared"
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret    string
	Algorithm string
	Expiry    time.Duration
}

// AuthConfig holds wallet authentication configuration
type AuthConfig struct {
	MockMode       bool
	NonceTTL       time.Duration
	SweepInterval  time.Duration
	NonceRateLimit float64
	NonceBurst     int
}

// StorageConfig selects and tunes the snapshot backend
type StorageConfig struct {
	Backend         string
	AppID           string
	IPFSAPIURL      string
	Gateways        []string
	PinataJWT       string
	PinataAPIKey    string
	PinataSecretKey string
	PinataAPIURL    string
	PinataPageLimit int
	RequestTimeout  time.Duration
	MaxRetries      int
	CacheSize       int
}

// HasPinataCredentials reports whether either Pinata auth scheme is configured.
func (c StorageConfig) HasPinataCredentials() bool {
	return c.PinataJWT != "" || (c.PinataAPIKey != "" && c.PinataSecretKey != "")
}

// PrimaryGateway returns the first configured gateway base URL.
func (c StorageConfig) PrimaryGateway() string {
	if len(c.Gateways) == 0 {
		return ""
	}
	return c.Gateways[0]
}

// BlockchainConfig holds marketplace contract configuration
type BlockchainConfig struct {
	Network         string
	RPCURL          string
	ChainID         int64
	ContractAddress string
	OwnerPrivateKey string
	ReceiptTimeout  time.Duration
}

// LLMConfig holds chat model configuration
type LLMConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	DefaultModel  string
	FallbackModel string
	MockReply     string
	MaxHistory    int
	Timeout       time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	useMocks := getEnvAsBool("USE_MOCK_SERVICES", true)
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			DSN:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "chatledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "change-this-in-production"),
			Algorithm: getEnv("JWT_ALGORITHM", "HS256"),
			Expiry:    getEnvAsDuration("JWT_EXPIRY", time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 60))*time.Minute),
		},
		Auth: AuthConfig{
			MockMode:       getEnvAsBool("AUTH_MOCK_MODE", false),
			NonceTTL:       getEnvAsDuration("AUTH_NONCE_TTL", 10*time.Minute),
			SweepInterval:  getEnvAsDuration("AUTH_NONCE_SWEEP_INTERVAL", time.Minute),
			NonceRateLimit: getEnvAsFloat("AUTH_NONCE_RATE_LIMIT", 1),
			NonceBurst:     getEnvAsInt("AUTH_NONCE_BURST", 5),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("IPFS_PINNING_SERVICE", "memory")),
			AppID:           getEnv("APP_ID", "chat-ledger"),
			IPFSAPIURL:      getEnv("IPFS_API_URL", "http://127.0.0.1:5001"),
			Gateways:        getEnvAsList("IPFS_GATEWAYS", []string{getEnv("IPFS_GATEWAY", "https://ipfs.io/ipfs/"), "https://gateway.pinata.cloud/ipfs/", "https://cloudflare-ipfs.com/ipfs/"}),
			PinataJWT:       getEnv("PINATA_JWT", ""),
			PinataAPIKey:    getEnv("PINATA_API_KEY", ""),
			PinataSecretKey: getEnv("PINATA_SECRET_KEY", ""),
			PinataAPIURL:    getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
			PinataPageLimit: getEnvAsInt("PINATA_PAGE_LIMIT", 100),
			RequestTimeout:  getEnvAsDuration("STORAGE_REQUEST_TIMEOUT", 10*time.Second),
			MaxRetries:      getEnvAsInt("STORAGE_MAX_RETRIES", 3),
			CacheSize:       getEnvAsInt("STORAGE_CACHE_SIZE", 1024),
		},
		Blockchain: BlockchainConfig{
			Network:         getEnv("BLOCKCHAIN_NETWORK", "polygon-amoy"),
			RPCURL:          getEnv("BLOCKCHAIN_RPC_URL", ""),
			ChainID:         int64(getEnvAsInt("BLOCKCHAIN_CHAIN_ID", 80002)),
			ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
			OwnerPrivateKey: getEnv("EVM_OWNER_PRIVATE_KEY", getEnv("PRIVATE_KEY", "")),
			ReceiptTimeout:  getEnvAsDuration("BLOCKCHAIN_RECEIPT_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "mock")),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			DefaultModel:  getEnv("DEFAULT_LLM_MODEL", "gpt-4o-mini"),
			FallbackModel: getEnv("FALLBACK_LLM_MODEL", "gpt-3.5-turbo"),
			MockReply:     getEnv("MOCK_LLM_REPLY", "Hello world"),
			MaxHistory:    getEnvAsInt("MAX_HISTORY_MESSAGES", 30),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		UseMocks: useMocks,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
