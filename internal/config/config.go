// backend-go/internal/config/config.go
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Pricing  PricingConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Dataset  DatasetConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SalesTable string
	MaxConns   int
}

type AppConfig struct {
	UploadDir     string
	DataDir       string
	WorkerCount   int
	WriteWorkbook bool
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	KPITTLSeconds int
}

// PricingConfig carries the tunable thresholds of the KPI pipeline.
type PricingConfig struct {
	TargetSupplier          string
	DiscountThreshold       float64
	PromoMinDays            int
	PromoPoolStores         bool
	TargetDiscountRate      float64
	OutlierMultiplier       float64
	UnhealthyScoreThreshold float64
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ReportPrefix string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

// DatasetConfig selects where the sales table is read from.
// Source is one of "file", "s3", "drive" or "postgres".
type DatasetConfig struct {
	Source      string
	Path        string
	ObjectKey   string
	DriveFileID string
	Name        string // stored dataset to read from the sales table; empty reads all rows
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		setDefaults(v)
		v.AutomaticEnv()

		instance = fromViper(v)

		ensureDir(instance.App.UploadDir)
		ensureDir(instance.App.DataDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bidco")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SALES_TABLE", "sales")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	v.SetDefault("APP_DATA_DIR", "./data/output")
	v.SetDefault("APP_WORKER_COUNT", 4)
	v.SetDefault("APP_WRITE_WORKBOOK", true)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_KPI_TTL_SECONDS", 300)

	v.SetDefault("PRICING_TARGET_SUPPLIER", "BIDCO")
	v.SetDefault("PRICING_DISCOUNT_THRESHOLD", 0.10)
	v.SetDefault("PRICING_PROMO_MIN_DAYS", 2)
	v.SetDefault("PRICING_PROMO_POOL_STORES", false)
	v.SetDefault("PRICING_TARGET_DISCOUNT_RATE", 0.09)
	v.SetDefault("PRICING_OUTLIER_MULTIPLIER", 1.5)
	v.SetDefault("PRICING_UNHEALTHY_SCORE_THRESHOLD", 75.0)

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_REPORT_PREFIX", "reports")

	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_DRIVE_FOLDER_ID", "")

	v.SetDefault("DATASET_SOURCE", "file")
	v.SetDefault("DATASET_PATH", "./data/uploads/Test_Data.xlsx")
	v.SetDefault("DATASET_OBJECT_KEY", "")
	v.SetDefault("DATASET_DRIVE_FILE_ID", "")
	v.SetDefault("DATASET_NAME", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogFormat:      v.GetString("LOG_FORMAT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SalesTable: v.GetString("DB_SALES_TABLE"),
			MaxConns:   v.GetInt("DB_MAX_CONNS"),
		},
		App: AppConfig{
			UploadDir:     v.GetString("APP_UPLOAD_DIR"),
			DataDir:       v.GetString("APP_DATA_DIR"),
			WorkerCount:   v.GetInt("APP_WORKER_COUNT"),
			WriteWorkbook: v.GetBool("APP_WRITE_WORKBOOK"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			KPITTLSeconds: v.GetInt("CACHE_KPI_TTL_SECONDS"),
		},
		Pricing: PricingConfig{
			TargetSupplier:          v.GetString("PRICING_TARGET_SUPPLIER"),
			DiscountThreshold:       v.GetFloat64("PRICING_DISCOUNT_THRESHOLD"),
			PromoMinDays:            v.GetInt("PRICING_PROMO_MIN_DAYS"),
			PromoPoolStores:         v.GetBool("PRICING_PROMO_POOL_STORES"),
			TargetDiscountRate:      v.GetFloat64("PRICING_TARGET_DISCOUNT_RATE"),
			OutlierMultiplier:       v.GetFloat64("PRICING_OUTLIER_MULTIPLIER"),
			UnhealthyScoreThreshold: v.GetFloat64("PRICING_UNHEALTHY_SCORE_THRESHOLD"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("S3_ENDPOINT"),
			AccessKey:    v.GetString("S3_ACCESS_KEY"),
			SecretKey:    v.GetString("S3_SECRET_KEY"),
			Bucket:       v.GetString("S3_BUCKET"),
			Region:       v.GetString("S3_REGION"),
			UseSSL:       v.GetBool("S3_USE_SSL"),
			ReportPrefix: v.GetString("S3_REPORT_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		Dataset: DatasetConfig{
			Source:      strings.ToLower(strings.TrimSpace(v.GetString("DATASET_SOURCE"))),
			Path:        v.GetString("DATASET_PATH"),
			ObjectKey:   v.GetString("DATASET_OBJECT_KEY"),
			DriveFileID: v.GetString("DATASET_DRIVE_FILE_ID"),
			Name:        v.GetString("DATASET_NAME"),
		},
	}
}

// StorageEnabled reports whether enough S3 settings are present to build a client.
func (c StorageConfig) StorageEnabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}
}
