package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://taskhub:@localhost:5432/taskhub?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Pagination.PageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 32, cfg.Comments.MaxDepth)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_REFRESH_TTL", "3600")
	t.Setenv("OUTBOX_SYNC_INTERVAL", "1m")
	t.Setenv("COMMENT_MAX_DEPTH", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, time.Minute, cfg.Outbox.SyncInterval)
	assert.Zero(t, cfg.Comments.MaxDepth)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Database:   DatabaseConfig{Driver: "mysql"},
		JWT:        JWTConfig{Secret: "x"},
		Pagination: PaginationConfig{PageSize: 50, MaxPageSize: 100},
	}
	assert.ErrorContains(t, cfg.Validate(), "mysql")
}
