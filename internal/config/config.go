package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type LLMConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	BaseURL         string `mapstructure:"base_url"`
	SafetyThreshold string `mapstructure:"safety_threshold"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

type SpeechConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Voice          string `mapstructure:"voice"`
	LanguageCode   string `mapstructure:"language_code"`
	AudioEncoding  string `mapstructure:"audio_encoding"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type CacheConfig struct {
	Backend         string `mapstructure:"backend"` // memory / redis
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	SummaryTTLHours int    `mapstructure:"summary_ttl_hours"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type AppSubConfig struct {
	PageSize    int    `mapstructure:"page_size"`
	PromptsFile string `mapstructure:"prompts_file"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. MENTORA_LLM_API_KEY=xxx
		v.SetEnvPrefix("MENTORA")
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		applyDefaults(&c)
		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func applyDefaults(c *Config) {
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.LLM.SafetyThreshold == "" {
		c.LLM.SafetyThreshold = "BLOCK_NONE"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxRetries <= 0 {
		c.LLM.MaxRetries = 3
	}
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = "https://texttospeech.googleapis.com/v1"
	}
	if c.Speech.LanguageCode == "" {
		c.Speech.LanguageCode = "en-US"
	}
	if c.Speech.AudioEncoding == "" {
		c.Speech.AudioEncoding = "MP3"
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = 30
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.SummaryTTLHours <= 0 {
		c.Cache.SummaryTTLHours = 24
	}
	if c.App.PageSize <= 0 {
		c.App.PageSize = 20
	}
	if c.App.PromptsFile == "" {
		c.App.PromptsFile = "prompts.yaml"
	}
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
