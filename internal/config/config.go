// Package config loads the service configuration from the environment.
// Everything is threaded explicitly from main; no package reads the
// environment on its own.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Media    MediaConfig
	Jobs     JobsConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	// WriteTimeout must exceed the job timeout: the streaming endpoints
	// hold their response open for the life of a job.
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"35m"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type MediaConfig struct {
	// RootDir is the single directory under which every artifact lives.
	RootDir     string `envconfig:"MEDIA_ROOT_DIR" default:"/tmp/clipstream"`
	YtDlpPath   string `envconfig:"MEDIA_YTDLP_PATH" default:"yt-dlp"`
	FFmpegPath  string `envconfig:"MEDIA_FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath string `envconfig:"MEDIA_FFPROBE_PATH" default:"ffprobe"`
	// SegmentSeconds is the target HLS segment duration.
	SegmentSeconds int `envconfig:"MEDIA_SEGMENT_SECONDS" default:"10"`
}

type JobsConfig struct {
	// MaxConcurrent bounds jobs running external processes at once.
	MaxConcurrent int64         `envconfig:"JOBS_MAX_CONCURRENT" default:"4"`
	Timeout       time.Duration `envconfig:"JOBS_TIMEOUT" default:"30m"`
	// Retention is how long finished artifacts stay on disk before the
	// janitor removes them. Zero disables sweeping.
	Retention     time.Duration `envconfig:"JOBS_RETENTION" default:"24h"`
	SweepInterval time.Duration `envconfig:"JOBS_SWEEP_INTERVAL" default:"10m"`
}

type DatabaseConfig struct {
	// Enabled turns on the PostgreSQL clip history.
	Enabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"clipstream"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"clipstream"`
	DBName   string `envconfig:"POSTGRES_DB" default:"clipstream"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	// Enabled turns on rendition archival to object storage.
	Enabled   bool   `envconfig:"MINIO_ENABLED" default:"false"`
	Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"renditions"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type RedisConfig struct {
	// Enabled turns on the Redis artifact index.
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
