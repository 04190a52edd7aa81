package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// JWTConfig keeps the access and refresh secrets apart so that one leaked key
// cannot be used to forge the other kind of token.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
}

type S3Config struct {
	Region     string        `mapstructure:"region"`
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
	PathStyle  bool          `mapstructure:"path_style"`
}

// AmazonConfig holds the Login-with-Amazon client and the Selling Partner API
// coordinates used to fetch product type definitions.
type AmazonConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token"`
	TokenURL      string `mapstructure:"token_url"`
	APIBaseURL    string `mapstructure:"api_base_url"`
	MarketplaceID string `mapstructure:"marketplace_id"`
	SellerID      string `mapstructure:"seller_id"`
	SecretName    string `mapstructure:"secret_name"`
}

type ShopifyConfig struct {
	TaxonomyURL string        `mapstructure:"taxonomy_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type CacheConfig struct {
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	S3       S3Config       `mapstructure:"s3"`
	Amazon   AmazonConfig   `mapstructure:"amazon"`
	Shopify  ShopifyConfig  `mapstructure:"shopify"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_path", "file://db/migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")

	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.bcrypt_cost", 12)

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.presign_ttl", 24*time.Hour)

	v.SetDefault("amazon.token_url", "https://api.amazon.com/auth/o2/token")
	v.SetDefault("amazon.api_base_url", "https://sellingpartnerapi-na.amazon.com")
	v.SetDefault("amazon.secret_name", "amazon-sp-api")

	v.SetDefault("shopify.taxonomy_url", "https://raw.githubusercontent.com/Shopify/product-taxonomy/main/dist/en/taxonomy.json")
	v.SetDefault("shopify.cache_ttl", 24*time.Hour)

	v.SetDefault("cache.category_ttl", 10*time.Minute)

	// Keys without a sensible default still have to be known to viper,
	// otherwise AutomaticEnv never consults the environment for them.
	for _, key := range envOnlyKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.path_style", false)
}

var envOnlyKeys = []string{
	"database.user",
	"database.password",
	"database.name",
	"redis.password",
	"jwt.access_secret",
	"jwt.refresh_secret",
	"s3.endpoint",
	"s3.access_key",
	"s3.secret_key",
	"amazon.client_id",
	"amazon.client_secret",
	"amazon.refresh_token",
	"amazon.marketplace_id",
	"amazon.seller_id",
}

// LoadConfig reads config.yml from path, applies a .env file if one is present
// and lets environment variables override any key (server.port -> SERVER_PORT).
func LoadConfig(path string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load(strings.TrimSuffix(path, "/") + "/.env")

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the auth layer cannot run safely with.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt.access_secret and jwt.refresh_secret are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("jwt.access_secret and jwt.refresh_secret must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt token lifetimes must be positive")
	}
	if c.S3.PresignTTL <= 0 {
		return errors.New("s3.presign_ttl must be positive")
	}
	return nil
}

// DSN builds the lib/pq connection string. SafeDSN is the same without the
// password, for logging.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) SafeDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// URL is the postgres:// form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
