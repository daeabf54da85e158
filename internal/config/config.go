package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Port              int    `yaml:"port"`
	Debug             bool   `yaml:"debug"` // expose error details in responses
	LogLevel          string `yaml:"log_level"`
	LogJSON           bool   `yaml:"log_json"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	TokenTTLMinutes   int    `yaml:"token_ttl_minutes"` // opaque tokens (activation, reset)
	BcryptCost        int    `yaml:"bcrypt_cost"`

	RateLimitMaxAttempts   int `yaml:"rate_limit_max_attempts"`
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`

	LockoutMaxAttempts          int `yaml:"lockout_max_attempts"`
	LockoutWindowSeconds        int `yaml:"lockout_window_seconds"`
	LockoutAttemptWindowSeconds int `yaml:"lockout_attempt_window_seconds"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	BaseURL    string `yaml:"base_url"` // used in activation/reset links
	Timeout    int    `yaml:"timeout"`  // seconds
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Private struct {
	Pg           Pg     `yaml:"pg"`
	JwtKey       string `yaml:"jwt_key"`
	JwtAlgorithm string `yaml:"jwt_algorithm"` // defaults to HS256
	Email        Email  `yaml:"email"`
	Redis        Redis  `yaml:"redis"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtAlgorithm() string {
	if c.Private.JwtAlgorithm == "" {
		return "HS256"
	}
	return c.Private.JwtAlgorithm
}

func (c *Config) SessionTTL() time.Duration {
	if c.Public.SessionTTLMinutes == 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.Public.SessionTTLMinutes) * time.Minute
}

func (c *Config) TokenTTL() time.Duration {
	if c.Public.TokenTTLMinutes == 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Public.TokenTTLMinutes) * time.Minute
}

func (c *Config) RateLimitMax() int {
	if c.Public.RateLimitMaxAttempts == 0 {
		return 60
	}
	return c.Public.RateLimitMaxAttempts
}

func (c *Config) RateLimitWindow() time.Duration {
	if c.Public.RateLimitWindowSeconds == 0 {
		return time.Minute
	}
	return time.Duration(c.Public.RateLimitWindowSeconds) * time.Second
}

func (c *Config) LockoutMax() int {
	if c.Public.LockoutMaxAttempts == 0 {
		return 5
	}
	return c.Public.LockoutMaxAttempts
}

func (c *Config) LockoutDuration() time.Duration {
	if c.Public.LockoutWindowSeconds == 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Public.LockoutWindowSeconds) * time.Second
}

func (c *Config) LockoutAttemptWindow() time.Duration {
	if c.Public.LockoutAttemptWindowSeconds == 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Public.LockoutAttemptWindowSeconds) * time.Second
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	if private.JwtKey == "" {
		panic("jwt_key is required")
	}

	return &Config{public, private}
}
