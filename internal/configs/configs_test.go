package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "STORE_DRIVER", "DATABASE_URL",
	"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PUBLIC_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestFromEnv_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, developmentJWTSecret, cfg.JWTSecret)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.StorageEnabled())
}

func TestFromEnv_Production(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8443")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/echospace")
	t.Setenv("ALLOWED_ORIGINS", "https://echo.space, https://www.echo.space ,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"https://echo.space", "https://www.echo.space"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsDevelopment())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"privileged port", map[string]string{"PORT": "80"}},
		{"production without secret", map[string]string{"ENVIRONMENT": "production", "DATABASE_URL": "postgres://x"}},
		{"production memory store", map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s", "STORE_DRIVER": "memory"}},
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"partial s3", map[string]string{"S3_BUCKET_NAME": "avatars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_CompleteStorage(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("S3_ENDPOINT", "http://127.0.0.1:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "minio")
	t.Setenv("S3_SECRET_ACCESS_KEY", "minio123")
	t.Setenv("S3_PUBLIC_URL", "http://127.0.0.1:9000/avatars/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.StorageEnabled())
	assert.Equal(t, "http://127.0.0.1:9000/avatars", cfg.S3PublicURL)
}

func TestLoadConfig_WithoutDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
}
