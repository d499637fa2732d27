package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database  DatabaseConfig  `envconfig:"DB"`
	JWT       JWTConfig       `envconfig:"JWT"`
	Server    ServerConfig    `envconfig:"SERVER"`
	CORS      CORSConfig      `envconfig:"CORS"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Mail      MailConfig      `envconfig:"MAIL"`
	SMTP      SMTPConfig      `envconfig:"SMTP"`
	Kafka     KafkaConfig     `envconfig:"KAFKA"`
	OTP       OTPConfig       `envconfig:"OTP"`
	Log       LogConfig       `envconfig:"LOG"`
	Metrics   MetricsConfig   `envconfig:"METRICS"`
	Donation  DonationConfig  `envconfig:"DONATION"`
	Worker    WorkerConfig    `envconfig:"WORKER"`
}

type DatabaseConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            string        `envconfig:"PORT" default:"3306"`
	User            string        `envconfig:"USER" default:"root"`
	Password        string        `envconfig:"PASSWORD"`
	Name            string        `envconfig:"NAME" default:"blood_donation"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

// DSN returns the go-sql-driver/mysql connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type JWTConfig struct {
	AccessSecret  string        `envconfig:"ACCESS_SECRET" default:"your-access-secret-key"`
	AccessExpiry  time.Duration `envconfig:"ACCESS_EXPIRY" default:"15m"`
	RefreshExpiry time.Duration `envconfig:"REFRESH_EXPIRY" default:"168h"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	GinMode         string        `envconfig:"GIN_MODE" default:"debug"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CookieSecure    bool          `envconfig:"COOKIE_SECURE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type RedisConfig struct {
	// Empty address disables every Redis-backed feature.
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type RateLimitConfig struct {
	Enabled         bool `envconfig:"ENABLED" default:"true"`
	LoginPerMinute  int  `envconfig:"LOGIN_PER_MINUTE" default:"10"`
	OTPPerMinute    int  `envconfig:"OTP_PER_MINUTE" default:"3"`
	// Budget for the endpoints that consume an OTP code.
	VerifyPerMinute int  `envconfig:"VERIFY_PER_MINUTE" default:"5"`
}

type MailConfig struct {
	// log, smtp or kafka
	Transport string `envconfig:"TRANSPORT" default:"log"`
	From      string `envconfig:"FROM" default:"no-reply@blood-donation.local"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

type KafkaConfig struct {
	Brokers   []string `envconfig:"BROKERS" default:"localhost:9092"`
	MailTopic string   `envconfig:"MAIL_TOPIC" default:"mail.outbound"`
}

type OTPConfig struct {
	Length int           `envconfig:"LENGTH" default:"6"`
	TTL    time.Duration `envconfig:"TTL" default:"5m"`
}

type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"`
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/app.log"`
	MaxSizeMB  int    `envconfig:"MAX_SIZE_MB" default:"100"`
	MaxBackups int    `envconfig:"MAX_BACKUPS" default:"10"`
	MaxAgeDays int    `envconfig:"MAX_AGE_DAYS" default:"30"`
	Compress   bool   `envconfig:"COMPRESS" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"true"`
	Path    string `envconfig:"PATH" default:"/metrics"`
}

type DonationConfig struct {
	// Minimum days between two successful donations of the same donor.
	IntervalDays int `envconfig:"INTERVAL_DAYS" default:"84"`
}

type WorkerConfig struct {
	Interval time.Duration `envconfig:"INTERVAL" default:"1h"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.Server.GinMode == "release" && cfg.JWT.AccessSecret == "your-access-secret-key" {
		return nil, fmt.Errorf("set JWT_ACCESS_SECRET in release mode")
	}
	if cfg.OTP.Length < 4 {
		cfg.OTP.Length = 6
	}

	return cfg, nil
}
