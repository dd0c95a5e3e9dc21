package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// ModelConfig 描述 AI 助手可用的模型后端。
//
// 两种部署形态二选一（本地优先）：
//   - 本地 OpenAI 兼容服务：local_base_url + local_model
//   - 托管 Groq：groq_api_key（+ groq_model）
//
// 两者都未配置不是加载错误：助手接口在请求时返回 503。
type ModelConfig struct {
	LocalBaseURL string `mapstructure:"local_base_url"`
	LocalModel   string `mapstructure:"local_model"`
	GroqBaseURL  string `mapstructure:"groq_base_url"`
	GroqAPIKey   string `mapstructure:"groq_api_key"`
	GroqModel    string `mapstructure:"groq_model"`
	// Timeout 为单次模型调用的超时上限。
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Storage  storage.Config `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Model    ModelConfig    `mapstructure:"model"`
	LogLevel string         `mapstructure:"log_level"`
}

func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// 默认搜索路径
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lifeagent")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LIFEAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// 读取配置文件；文件不存在时使用默认值 + 环境变量
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	// 模型后端允许完全不配置（请求时报 503），但配了本地地址就必须配模型名。
	if c.Model.LocalBaseURL != "" && c.Model.LocalModel == "" {
		return fmt.Errorf("model.local_model is required when model.local_base_url is set (or set LOCAL_AI_MODEL env var)")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// Storage 默认值
	v.SetDefault("storage.path", "lifeagent.db")
	v.SetDefault("storage.busy_timeout", 5*time.Second)

	// Server 默认值
	v.SetDefault("server.addr", ":8080")

	// Model 默认值
	v.SetDefault("model.local_base_url", "")
	v.SetDefault("model.local_model", "")
	v.SetDefault("model.groq_base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("model.groq_api_key", "")
	v.SetDefault("model.groq_model", "llama-3.3-70b-versatile")
	v.SetDefault("model.timeout", 60*time.Second)

	// 原部署里这些变量名是裸的，保留兼容绑定。
	v.BindEnv("model.local_base_url", "LOCAL_AI_URL")
	v.BindEnv("model.local_model", "LOCAL_AI_MODEL")
	v.BindEnv("model.groq_api_key", "GROQ_API_KEY")
	v.BindEnv("model.groq_model", "GROQ_MODEL")
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Storage: storage.Config{
			Path:        "lifeagent.db",
			BusyTimeout: 5 * time.Second,
		},
		Server: ServerConfig{Addr: ":8080"},
		Model: ModelConfig{
			GroqBaseURL: "https://api.groq.com/openai/v1",
			GroqModel:   "llama-3.3-70b-versatile",
			Timeout:     60 * time.Second,
		},
	}
}
