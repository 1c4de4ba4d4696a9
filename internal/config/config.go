package config

import (
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Server settings
	Port      string
	WebPort   string
	APIURL    string
	RateLimit float64
	RateBurst int

	Store       string
	Database    Database
	AutoMigrate bool

	// Optional collaborators; empty disables them
	RedisAddr    string
	CacheTTL     time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Auth settings
	JWTSecret string
	APIToken  string

	LogLevel  string
	LogFormat string
}

// Database holds MySQL connection settings.
type Database struct {
	Host         string
	Port         string
	User         string
	Pass         string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	ConnRetries  int
	RetryDelay   time.Duration
}

// DSN builds a go-sql-driver DSN.
func (d Database) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, d.Port)
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// SetDefaults registers defaults for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "4000")
	v.SetDefault("web_port", "3000")
	v.SetDefault("next_public_api_url", "http://localhost:4000")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_burst", 20)

	v.SetDefault("store", "mysql")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_user", "root")
	v.SetDefault("db_pass", "")
	v.SetDefault("db_name", "user_management")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_retries", 10)
	v.SetDefault("db_retry_delay", 3*time.Second)
	v.SetDefault("auto_migrate", true)

	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_ttl", time.Minute)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "user-topic")
	v.SetDefault("kafka_group_id", "user-watch-group")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("api_token", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads configuration from the environment through v.
func Load(v *viper.Viper) *Config {
	SetDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:      v.GetString("port"),
		WebPort:   v.GetString("web_port"),
		APIURL:    strings.TrimRight(v.GetString("next_public_api_url"), "/"),
		RateLimit: v.GetFloat64("rate_limit"),
		RateBurst: v.GetInt("rate_burst"),

		Store: strings.ToLower(v.GetString("store")),
		Database: Database{
			Host:         v.GetString("db_host"),
			Port:         v.GetString("db_port"),
			User:         v.GetString("db_user"),
			Pass:         v.GetString("db_pass"),
			Name:         v.GetString("db_name"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
			MaxIdleConns: v.GetInt("db_max_idle_conns"),
			ConnRetries:  v.GetInt("db_conn_retries"),
			RetryDelay:   v.GetDuration("db_retry_delay"),
		},
		AutoMigrate: v.GetBool("auto_migrate"),

		RedisAddr:    v.GetString("redis_addr"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		KafkaBrokers: splitList(v.GetString("kafka_brokers")),
		KafkaTopic:   v.GetString("kafka_topic"),
		KafkaGroupID: v.GetString("kafka_group_id"),

		JWTSecret: v.GetString("jwt_secret"),
		APIToken:  v.GetString("api_token"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
