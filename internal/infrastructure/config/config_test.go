package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "test",
			Password: "test",
			Database: "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Checkout: CheckoutConfig{
			RentalCommissionBps: 1290,
			SaleCommissionBps:   1500,
			PendingTTL:          45 * time.Minute,
		},
		Worker: WorkerConfig{
			BatchSize: 10,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_CommissionBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Checkout.RentalCommissionBps = 10001
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rental_commission_bps")

	cfg = validConfig()
	cfg.Checkout.SaleCommissionBps = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sale_commission_bps")
}

func TestConfig_Validate_PendingTTLRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Checkout.PendingTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending_ttl")
}

func TestConfig_Validate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "too-short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Database.Host = ""
	cfg.Worker.BatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.host")
	assert.Contains(t, err.Error(), "worker.batch_size")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1290), cfg.Checkout.RentalCommissionBps)
	assert.Equal(t, int64(1500), cfg.Checkout.SaleCommissionBps)
	assert.Equal(t, 45*time.Minute, cfg.Checkout.PendingTTL)
	assert.Equal(t, "checkout-reconcilers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, 5, cfg.Worker.MaxEventRetries)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	dsn := cfg.Database.DatabaseDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=test_db")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}
