package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "RENTAL"

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    DatabaseConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
	Booking     BookingConfig
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	GroupPrefix    string
	BookingTopic   string
	PaymentTopic   string
	ConsumePayment bool
}

// RedisConfig holds the statistics cache settings.
type RedisConfig struct {
	Enabled  bool
	URL      string
	StatsTTL time.Duration
}

// BookingConfig holds booking engine policy.
type BookingConfig struct {
	// AdvanceReservations admits bookings on a vehicle that is currently held,
	// as long as the requested dates do not overlap an active reservation.
	AdvanceReservations   bool
	DriverCommissionRate  float64
	BookingNumberAttempts int
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*ServiceConfig, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.port", ":8082")
	v.SetDefault("app.env", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "drivenow_booking")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.conn_max_lifetime", time.Hour)

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "drivenow-")
	v.SetDefault("kafka.booking_topic", "booking.events")
	v.SetDefault("kafka.payment_topic", "payment.events")
	v.SetDefault("kafka.consume_payment", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.stats_ttl", 30*time.Second)

	v.SetDefault("booking.advance_reservations", false)
	v.SetDefault("booking.driver_commission_rate", 0.15)
	v.SetDefault("booking.booking_number_attempts", 5)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:   v.GetString("service.port"),
		AppEnv: v.GetString("app.env"),
		DBConfig: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetString("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:        v.GetBool("kafka.enabled"),
			Brokers:        splitList(v.GetString("kafka.brokers")),
			GroupPrefix:    v.GetString("kafka.group_prefix"),
			BookingTopic:   v.GetString("kafka.booking_topic"),
			PaymentTopic:   v.GetString("kafka.payment_topic"),
			ConsumePayment: v.GetBool("kafka.consume_payment"),
		},
		RedisConfig: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			URL:      v.GetString("redis.url"),
			StatsTTL: v.GetDuration("redis.stats_ttl"),
		},
		Booking: BookingConfig{
			AdvanceReservations:   v.GetBool("booking.advance_reservations"),
			DriverCommissionRate:  v.GetFloat64("booking.driver_commission_rate"),
			BookingNumberAttempts: v.GetInt("booking.booking_number_attempts"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.Booking.DriverCommissionRate < 0 || c.Booking.DriverCommissionRate > 1 {
		return fmt.Errorf("booking.driver_commission_rate must be within [0,1], got %v", c.Booking.DriverCommissionRate)
	}
	if c.Booking.BookingNumberAttempts < 1 {
		return fmt.Errorf("booking.booking_number_attempts must be positive, got %d", c.Booking.BookingNumberAttempts)
	}
	if c.KafkaConfig.Enabled && len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
