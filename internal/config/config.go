package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// MaxHistoryLimit 是 /api/history 最多返回的记录数。
const MaxHistoryLimit = 50

// EnvPrefix 命名空间环境变量前缀，例如 MINDHAVEN_TRACKER_HISTORY_LIMIT。
const EnvPrefix = "MINDHAVEN_"

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Tracker   TrackerConfig   `koanf:"tracker"`
	Reply     ReplyConfig     `koanf:"reply"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Log       LogConfig       `koanf:"log"`
	Demo      DemoConfig      `koanf:"demo"`
	AI        AIConfig        `koanf:"-"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr       string `koanf:"addr"`
	CORSOrigin string `koanf:"cors_origin"`
}

// TrackerConfig 描述情绪计数与历史记录的存储。
type TrackerConfig struct {
	Store        string `koanf:"store"`
	RedisURL     string `koanf:"redis_url"`
	KeyPrefix    string `koanf:"key_prefix"`
	HistoryLimit int    `koanf:"history_limit"`
	Capacity     int    `koanf:"capacity"`
}

// ReplyConfig 描述回复生成。Seed 为 0 时使用真随机。
type ReplyConfig struct {
	Seed           uint64 `koanf:"seed"`
	HelplineRegion string `koanf:"helpline_region"`
}

// RateLimitConfig 描述聊天接口的限流。RPS 为 0 时关闭。
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DemoConfig 描述演示用的简化服务。
type DemoConfig struct {
	Addr      string `koanf:"addr"`
	StaticDir string `koanf:"static_dir"`
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey              string
	AccessKey           string
	SecretKey           string
	Model               string
	BaseURL             string
	Region              string
	Temperature         *float64
	TopP                *float64
	MaxTokens           *int
	EmotionLLMEnabled   bool
	EmotionHistoryLimit int
	EmotionTimeout      time.Duration
}

var defaults = map[string]interface{}{
	"server.addr":           ":5050",
	"server.cors_origin":    "*",
	"tracker.store":         "memory",
	"tracker.key_prefix":    "mindhaven",
	"tracker.history_limit": 50,
	"tracker.capacity":      1000,
	"reply.seed":            0,
	"reply.helpline_region": "india",
	"ratelimit.rps":         5.0,
	"ratelimit.burst":       10,
	"log.level":             "info",
	"log.format":            "json",
	"demo.addr":             ":5051",
	"demo.static_dir":       "public",
}

// Load 依次读取默认值、TOML 配置文件（path 为空时尝试 MINDHAVEN_CONFIG）、
// MINDHAVEN_ 前缀环境变量，最后应用 PORT、REDIS_URL、ARK_* 等服务级环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG"))
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := applyServiceEnv(&cfg); err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}
	cfg.AI = ai

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey 将 MINDHAVEN_TRACKER_HISTORY_LIMIT 映射为 tracker.history_limit。
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func applyServiceEnv(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr, err := normalizeAddr(port)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}
	if redisURL := strings.TrimSpace(os.Getenv("REDIS_URL")); redisURL != "" {
		cfg.Tracker.RedisURL = redisURL
	}
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("LOG_FORMAT", cfg.Log.Format)
	return nil
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}
	return ":" + port, nil
}

// Validate 校验配置。
func (c *Config) Validate() error {
	var errs []error

	switch c.Tracker.Store {
	case "memory":
	case "redis":
		if c.Tracker.RedisURL == "" {
			errs = append(errs, errors.New("tracker.redis_url (or REDIS_URL) is required when tracker.store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported tracker.store %q", c.Tracker.Store))
	}

	if c.Tracker.HistoryLimit < 1 || c.Tracker.HistoryLimit > MaxHistoryLimit {
		errs = append(errs, fmt.Errorf("tracker.history_limit must be between 1 and %d, got %d", MaxHistoryLimit, c.Tracker.HistoryLimit))
	}
	if c.Tracker.Capacity < c.Tracker.HistoryLimit {
		errs = append(errs, fmt.Errorf("tracker.capacity %d is smaller than history_limit %d", c.Tracker.Capacity, c.Tracker.HistoryLimit))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("ratelimit.rps must not be negative, got %v", c.RateLimit.RPS))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	return errors.Join(errs...)
}

// SampleTOML 是 config init 写出的示例配置。
const SampleTOML = `# MindHaven configuration

[server]
addr = ":5050"
cors_origin = "*"

[tracker]
# memory or redis
store = "memory"
redis_url = "redis://localhost:6379/0"
key_prefix = "mindhaven"
history_limit = 50
capacity = 1000

[reply]
# 0 picks replies with a true random source
seed = 0
helpline_region = "india"

[ratelimit]
rps = 5.0
burst = 10

[log]
level = "info"
format = "json"

[demo]
addr = ":5051"
static_dir = "public"
`

// WriteSample 写出示例配置，目标文件已存在时报错。
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(SampleTOML), 0o644)
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
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

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
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

	emotionEnabled, err := parseBoolEnv("AI_EMOTION_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	emotionHistory := 6
	if historyOverride, err := parseOptionalIntEnv("AI_EMOTION_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if historyOverride != nil {
		if *historyOverride < 1 {
			emotionHistory = 1
		} else {
			emotionHistory = *historyOverride
		}
	}

	timeout := 8 * time.Second
	if raw := strings.TrimSpace(os.Getenv("AI_EMOTION_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return AIConfig{}, fmt.Errorf("invalid AI_EMOTION_TIMEOUT value %q: %w", raw, err)
		}
		timeout = parsed
	}

	return AIConfig{
		APIKey:              strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:           strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:           strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:               strings.TrimSpace(os.Getenv("Model")),
		BaseURL:             getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:              getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:         temperature,
		TopP:                topP,
		MaxTokens:           maxTokens,
		EmotionLLMEnabled:   emotionEnabled,
		EmotionHistoryLimit: emotionHistory,
		EmotionTimeout:      timeout,
	}, nil
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
