package main

import (
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/inkpost/internal/common"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`

	MongoURI         string        `mapstructure:"MONGO_URI"`
	MongoDB          string        `mapstructure:"MONGO_DB"`
	MongoMaxPoolSize uint64        `mapstructure:"MONGO_MAX_POOL_SIZE"`
	MongoMaxIdleTime time.Duration `mapstructure:"MONGO_MAX_IDLE_TIME"`

	BlobDriver       string `mapstructure:"BLOB_DRIVER"`
	BlobPublicBase   string `mapstructure:"BLOB_PUBLIC_BASE"`
	OSSEndpoint      string `mapstructure:"OSS_ENDPOINT"`
	OSSAccessKey     string `mapstructure:"OSS_ACCESS_KEY"`
	OSSSecretKey     string `mapstructure:"OSS_SECRET_KEY"`
	OSSSecurityToken string `mapstructure:"OSS_SECURITY_TOKEN"`
	OSSBucket        string `mapstructure:"OSS_BUCKET"`
	CloudinaryURL    string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryFolder string `mapstructure:"CLOUDINARY_FOLDER"`

	AccessTokenSecret  string `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	FacebookAppID      string `mapstructure:"FACEBOOK_APP_ID"`
	FacebookAppSecret  string `mapstructure:"FACEBOOK_APP_SECRET"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`

	AdminKey string `mapstructure:"ADMIN_KEY"`
}

func (c *Config) isProduction() bool {
	return c.Environment == "production"
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("MONGO_DB", "inkpost")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 25)
	v.SetDefault("MONGO_MAX_IDLE_TIME", "15m")
	v.SetDefault("BLOB_DRIVER", "memory")
	v.SetDefault("RABBITMQ_PORT", "5672")
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 4)
	v.SetDefault("RATE_LIMIT_ENABLED", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	v := common.NewValidator()

	v.Check(c.MongoURI != "", "MONGO_URI", "must be provided")
	v.Check(c.AccessTokenSecret != "", "ACCESS_TOKEN_SECRET", "must be provided")
	v.Check(c.RefreshTokenSecret != "", "REFRESH_TOKEN_SECRET", "must be provided")

	switch c.BlobDriver {
	case "oss":
		v.Check(c.OSSEndpoint != "", "OSS_ENDPOINT", "must be provided")
		v.Check(c.OSSBucket != "", "OSS_BUCKET", "must be provided")
	case "cloudinary":
		v.Check(c.CloudinaryURL != "", "CLOUDINARY_URL", "must be provided")
	case "memory":
		v.Check(!c.isProduction(), "BLOB_DRIVER", "must not be memory in production")
	default:
		v.AddError("BLOB_DRIVER", "must be one of oss cloudinary memory")
	}

	if !v.Valid() {
		return v.ValidationError()
	}

	return nil
}
