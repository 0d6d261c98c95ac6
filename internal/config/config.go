package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Shop     ShopConfig
	Mail     MailConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// ShopConfig holds storefront business settings
type ShopConfig struct {
	LowStockThreshold      int
	CriticalStockThreshold int
	PaymentMethods         []string
	GuestCartTTLDays       int
	LowStockWorkers        int
}

type MailConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("SHOP_LOW_STOCK_THRESHOLD", 10)
	viper.SetDefault("SHOP_CRITICAL_STOCK_THRESHOLD", 5)
	viper.SetDefault("SHOP_PAYMENT_METHODS", []string{"card", "paypal", "bank_transfer", "cod"})
	viper.SetDefault("SHOP_GUEST_CART_TTL_DAYS", 7)
	viper.SetDefault("SHOP_LOW_STOCK_WORKERS", 2)
	viper.SetDefault("MAIL_HOST", "localhost")
	viper.SetDefault("MAIL_PORT", "25")
	viper.SetDefault("MAIL_FROM", "shop@example.com")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Shop: ShopConfig{
			LowStockThreshold:      viper.GetInt("SHOP_LOW_STOCK_THRESHOLD"),
			CriticalStockThreshold: viper.GetInt("SHOP_CRITICAL_STOCK_THRESHOLD"),
			PaymentMethods:         viper.GetStringSlice("SHOP_PAYMENT_METHODS"),
			GuestCartTTLDays:       viper.GetInt("SHOP_GUEST_CART_TTL_DAYS"),
			LowStockWorkers:        viper.GetInt("SHOP_LOW_STOCK_WORKERS"),
		},
		Mail: MailConfig{
			Host:     viper.GetString("MAIL_HOST"),
			Port:     viper.GetString("MAIL_PORT"),
			From:     viper.GetString("MAIL_FROM"),
			Username: viper.GetString("MAIL_USERNAME"),
			Password: viper.GetString("MAIL_PASSWORD"),
		},
	}
}

// IsValidPaymentMethod reports whether method is one of the configured
// payment methods
func (c *ShopConfig) IsValidPaymentMethod(method string) bool {
	for _, m := range c.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
