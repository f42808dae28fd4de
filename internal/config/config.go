// Package config loads the immutable application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Storage  string   `yaml:"storage"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Auth     Auth     `yaml:"auth"`
	Posts    Posts    `yaml:"posts"`
	Media    Media    `yaml:"media"`
	Kafka    Kafka    `yaml:"kafka"`
}

type Server struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin mode: debug, release, test
}

type Database struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Auth struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	LoginPath     string        `yaml:"login_path"`
	SecureCookie  bool          `yaml:"secure_cookie"`
}

// Posts 列表分页与首页缓存
type Posts struct {
	PageSize      int           `yaml:"page_size"`
	IndexCacheTTL time.Duration `yaml:"index_cache_ttl"`
}

type Media struct {
	Root           string `yaml:"root"`
	URLPrefix      string `yaml:"url_prefix"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Kafka struct {
	Brokers  []string      `yaml:"brokers"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
	MaxRetry int           `yaml:"max_retry"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// Default 开发环境默认值
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080", Mode: "debug"},
		Storage: StorageMySQL,
		Database: Database{
			DSN:      "user:password@tcp(127.0.0.1:3306)/yatube?charset=utf8mb4&parseTime=True",
			LogLevel: "warn",
		},
		Redis: Redis{Addr: "127.0.0.1:6379"},
		Auth: Auth{
			AccessSecret:  "secret-key",
			RefreshSecret: "refresh-key",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			LoginPath:     "/auth/login/",
		},
		Posts: Posts{PageSize: 10, IndexCacheTTL: 20 * time.Second},
		Media: Media{Root: "media", URLPrefix: "/media/", MaxUploadBytes: 5 << 20},
		Kafka: Kafka{Topic: "yatube.follow", Interval: time.Second, MaxRetry: 5},
	}
}

// Load 读取默认值 -> yaml 文件 -> 环境变量。path 为空或文件不存在时跳过文件。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err = yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"YATUBE_ADDR":           &c.Server.Addr,
		"YATUBE_MODE":           &c.Server.Mode,
		"YATUBE_STORAGE":        &c.Storage,
		"YATUBE_DB_DSN":         &c.Database.DSN,
		"YATUBE_REDIS_ADDR":     &c.Redis.Addr,
		"YATUBE_REDIS_PASSWORD": &c.Redis.Password,
		"YATUBE_ACCESS_SECRET":  &c.Auth.AccessSecret,
		"YATUBE_REFRESH_SECRET": &c.Auth.RefreshSecret,
		"YATUBE_MEDIA_ROOT":     &c.Media.Root,
		"YATUBE_KAFKA_TOPIC":    &c.Kafka.Topic,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	if v, ok := lookup("YATUBE_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("YATUBE_PAGE_SIZE: %w", err)
		}
		c.Posts.PageSize = n
	}
	if v, ok := lookup("YATUBE_INDEX_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("YATUBE_INDEX_CACHE_TTL: %w", err)
		}
		c.Posts.IndexCacheTTL = d
	}
	if v, ok := lookup("YATUBE_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMySQL, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Posts.PageSize <= 0 {
		return errors.New("posts.page_size must be positive")
	}
	if c.Posts.IndexCacheTTL < 0 {
		return errors.New("posts.index_cache_ttl must not be negative")
	}
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return errors.New("auth secrets are required")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("auth token ttl must be positive")
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		return errors.New("auth.login_path must be an absolute path")
	}
	return nil
}
