package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Storage  StorageConfig
	Mirror   MirrorConfig
	Auth     AuthConfig
	Log      LogConfig
	Location *time.Location
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	mirror, err := loadMirrorConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	location, err := loadLocation()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Storage:  storage,
		Mirror:   mirror,
		Auth:     auth,
		Log:      logCfg,
		Location: location,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	HistoryLimit   int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			historyLimit = 1
		} else {
			historyLimit = *override
		}
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		HistoryLimit:   historyLimit,
	}, nil
}

// 存储后端取值。
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// StorageConfig 描述本地持久化介质。
type StorageConfig struct {
	Backend       string
	Path          string
	WAL           bool
	Sync          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendSQLite))
	switch backend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendNone:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value %q", backend)
	}

	wal, err := parseBoolEnv("STORAGE_WAL", true)
	if err != nil {
		return StorageConfig{}, err
	}

	redisDB := 0
	if db, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return StorageConfig{}, err
	} else if db != nil {
		redisDB = *db
	}

	cfg := StorageConfig{
		Backend:       backend,
		Path:          getEnvOrDefault("STORAGE_PATH", "mindfulme.db"),
		WAL:           wal,
		Sync:          strings.ToUpper(getEnvOrDefault("STORAGE_SYNC", "NORMAL")),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisPrefix:   getEnvOrDefault("REDIS_PREFIX", "mindfulme"),
	}

	if cfg.Backend == BackendRedis && cfg.RedisAddr == "" {
		return StorageConfig{}, fmt.Errorf("STORAGE_BACKEND=redis requires REDIS_ADDR")
	}
	return cfg, nil
}

// MirrorConfig 描述远端文档库（Postgres）镜像。
type MirrorConfig struct {
	DSN     string
	Timeout time.Duration
}

// Enabled 表示是否配置了远端镜像。
func (c MirrorConfig) Enabled() bool {
	return c.DSN != ""
}

func loadMirrorConfig() (MirrorConfig, error) {
	timeout, err := parseDurationEnv("MIRROR_TIMEOUT", 5*time.Second)
	if err != nil {
		return MirrorConfig{}, err
	}
	return MirrorConfig{
		DSN:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Timeout: timeout,
	}, nil
}

// AuthConfig 描述本地认证与会话引导。
type AuthConfig struct {
	JWTSecret        []byte
	TokenTTL         time.Duration
	BootstrapTimeout time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	ttl, err := parseDurationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return AuthConfig{}, err
	}

	bootstrap, err := parseDurationEnv("AUTH_BOOTSTRAP_TIMEOUT", 3*time.Second)
	if err != nil {
		return AuthConfig{}, err
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "mindfulme-dev-secret"
	}

	return AuthConfig{
		JWTSecret:        []byte(secret),
		TokenTTL:         ttl,
		BootstrapTimeout: bootstrap,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

// loadLocation 决定"自然日"所在的时区。
func loadLocation() (*time.Location, error) {
	name := getEnvOrDefault("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE value %q: %w", name, err)
	}
	return loc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
