package config

import "time"

// Market definition market_service YAML structure
type Market struct {
	Port       string          `mapstructure:"port"`
	GRPCPort   string          `mapstructure:"grpc_port"`
	PprofAddr  string          `mapstructure:"pprof_addr"`
	BaseURL    string          `mapstructure:"base_url"`
	UploadDir  string          `mapstructure:"upload_dir"`
	CORSOrigin string          `mapstructure:"cors_origin"`
	Token      TokenConfig     `mapstructure:"token"`
	PostgreSQL DatabaseConfig  `mapstructure:"pg"`
	MongoDB    DatabaseConfig  `mapstructure:"mongo"`
	Redis      RedisConfig     `mapstructure:"redis"`
	RabbitMQ   DatabaseConfig  `mapstructure:"rabbitmq"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	ImageHost  ImageHostConfig `mapstructure:"image_host"`
	Cleanup    CleanupConfig   `mapstructure:"cleanup"`
	MailQueue  string          `mapstructure:"mail_queue"`
}

// MailWorker definition mail_worker YAML structure
type MailWorker struct {
	Queue      string         `mapstructure:"queue"`
	RetryDelay time.Duration  `mapstructure:"retry_delay"`
	RabbitMQ   DatabaseConfig `mapstructure:"rabbitmq"`
	Brevo      BrevoConfig    `mapstructure:"brevo"`
}

// TokenConfig jwt lifetimes
type TokenConfig struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTTL       time.Duration `mapstructure:"access_ttl"`
	RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// KafkaConfig definition kafka setting, empty brokers disables publishing
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// ImageHostConfig selects where product and avatar images live
type ImageHostConfig struct {
	// Provider "cloudinary" or "minio"
	Provider      string      `mapstructure:"provider"`
	CloudinaryURL string      `mapstructure:"cloudinary_url"`
	Folder        string      `mapstructure:"folder"`
	MinIO         MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	PublicURL     string `mapstructure:"public_url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// BrevoConfig transactional mail api
type BrevoConfig struct {
	APIURL      string `mapstructure:"api_url"`
	APIKey      string `mapstructure:"api_key"`
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
}

// CleanupConfig upload staging sweep
type CleanupConfig struct {
	Spec   string        `mapstructure:"spec"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
