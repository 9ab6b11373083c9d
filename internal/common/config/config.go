package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Auth     AuthConfig     `json:"auth"`
	Log      LogConfig      `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	HTTPPort int    `json:"http_port"` // HTTP端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // 数据库驱动
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig 链路追踪配置。
// Endpoint 为空表示关闭上报（本地开发和测试环境的默认姿势）。
type JaegerConfig struct {
	Endpoint    string  `json:"endpoint"`
	SamplerType string  `json:"sampler_type"` // const, probabilistic, ratelimiting, remote；空值按 const 处理
	Sampler     float64 `json:"sampler"`      // 采样参数，const 时 0/1，probabilistic 时为采样率
	LogSpans    bool    `json:"log_spans"`
}

// AuthConfig 操作者身份配置。
// Enabled=false 时所有写操作的操作者记录为 "System"（尚未接入真实认证）。
type AuthConfig struct {
	Enabled   bool   `json:"enabled"`
	JWTSecret string `json:"jwt_secret"`
	Issuer    string `json:"issuer"`
	Audience  string `json:"audience"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 如果配置文件不存在，使用默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}

		applyEnvOverrides(globalConfig)
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// applyEnvOverrides 环境变量覆盖敏感项（密码、密钥不落配置文件）。
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Name:     "permit-api",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "avpermit",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint:    "localhost:6831",
			SamplerType: "const",
			Sampler:     1.0,
		},
		Auth: AuthConfig{
			Enabled: false,
			Issuer:  "avpermit",
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/permit-api.log",
		},
	}
	applyEnvOverrides(cfg)
	return cfg
}
